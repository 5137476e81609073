package protocol

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/bramvdbogaerde/go-scp"
	"github.com/bramvdbogaerde/go-scp/auth"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// scpDownloader transfers a remote file over SCP using go-scp
// (gardener-gardener's direct dependency), authenticating with either the
// URL's embedded password or the process's SSH agent.
type scpDownloader struct{}

// NewSCPDownloader returns the scp:// Downloader.
func NewSCPDownloader() Downloader { return &scpDownloader{} }

func (d *scpDownloader) Meta() model.PluginMeta {
	return model.PluginMeta{Name: "scp", Version: "1.0", SupportedSchemes: []string{"scp"}}
}

func (d *scpDownloader) Download(ctx context.Context, opts Options, outputPath string) (int64, error) {
	clientConfig, err := sshClientConfig(opts)
	if err != nil {
		return 0, err
	}

	client := scp.NewClient(hostPort(opts), &clientConfig)
	if err := client.Connect(); err != nil {
		return 0, fluxerr.Newf(fluxerr.Network, "scp connect to %s failed", hostPort(opts)).WithCause(err)
	}
	defer client.Close()

	out, err := createOutputFile(outputPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	if err := client.CopyFromRemotePassThru(ctx, out, opts.Path, nil); err != nil {
		return 0, fluxerr.Newf(fluxerr.Network, "scp transfer of %s failed", opts.Path).WithCause(err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fluxerr.New(fluxerr.Network, "cannot stat downloaded file").WithCause(err)
	}
	return info.Size(), nil
}

// sshClientConfig builds an ssh.ClientConfig from Options: an explicit
// password first, then the SSH agent, then an interactive terminal prompt,
// matching the ambient-credential resolution go-scp's own examples use.
func sshClientConfig(opts Options) (ssh.ClientConfig, error) {
	user := opts.User
	if user == "" {
		user = os.Getenv("USER")
	}

	if opts.Password != "" {
		return auth.PasswordKey(user, opts.Password, ssh.InsecureIgnoreHostKey()), nil
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		agentConn, err := dialAgent(sock)
		if err == nil {
			return ssh.ClientConfig{
				User:            user,
				Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agentConn.Signers)},
				HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			}, nil
		}
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := promptPassword(user, opts.Host)
		if err != nil {
			return ssh.ClientConfig{}, err
		}
		return auth.PasswordKey(user, password, ssh.InsecureIgnoreHostKey()), nil
	}

	return ssh.ClientConfig{}, fluxerr.New(fluxerr.Network,
		"no scp credentials: set a password in the URL, export SSH_AUTH_SOCK, or run interactively").
		WithSuggestion(fmt.Sprintf("scp://user:pass@%s/path or a running ssh-agent", opts.Host))
}

// promptPassword reads an SSH password from the controlling terminal
// without echoing it.
func promptPassword(user, host string) (string, error) {
	fmt.Printf("password for %s@%s: ", user, host)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fluxerr.New(fluxerr.Network, "cannot read password").WithCause(err)
	}
	return string(passwordBytes), nil
}
