package probe

import (
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

// checkSFTP dials the host, opens an SFTP session and stats the repository
// directory. Authentication tries the URI password, then the SSH agent,
// then the common private keys in ~/.ssh.
func checkSFTP(t Target) error {
	config := &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	if t.Pass != "" {
		config.Auth = append(config.Auth, ssh.Password(t.Pass))
	} else {
		if authSock := os.Getenv("SSH_AUTH_SOCK"); authSock != "" {
			if conn, err := net.Dial("unix", authSock); err == nil {
				ag := agent.NewClient(conn)
				if signers, err := ag.Signers(); err == nil && len(signers) > 0 {
					config.Auth = append(config.Auth, ssh.PublicKeysCallback(ag.Signers))
				}
			}
		}

		if home, err := os.UserHomeDir(); err == nil {
			for _, k := range []string{"id_rsa", "id_ed25519", "id_ecdsa"} {
				key, err := os.ReadFile(filepath.Join(home, ".ssh", k))
				if err != nil {
					continue
				}
				if signer, err := ssh.ParsePrivateKey(key); err == nil {
					config.Auth = append(config.Auth, ssh.PublicKeys(signer))
				}
			}
		}
	}

	if len(config.Auth) == 0 {
		return apperrors.New(apperrors.KindConnection,
			"no usable SSH authentication method",
			"Run an SSH agent or place a private key in ~/.ssh.")
	}

	client, err := ssh.Dial("tcp", t.Host, config)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection,
			"failed to connect to "+t.Host,
			"Check host reachability, SSH port, and credentials.")
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection,
			"SFTP subsystem not available on "+t.Host,
			"Verify the SFTP subsystem is enabled on the remote host.")
	}
	defer sftpClient.Close()

	if t.Dir != "" {
		if _, err := sftpClient.Stat(t.Dir); err != nil {
			return apperrors.Wrap(err, apperrors.KindConnection,
				"repository path "+t.Dir+" is not accessible on "+t.Host, "")
		}
	}
	return nil
}
