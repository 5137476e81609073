// Package protocol implements Fluxion's external (non-HTTP) downloaders:
// SCP, SFTP, and FTP, dispatched to by the Engine when a fetch URL's
// scheme is scp, sftp, or ftp.
package protocol

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// Options carries the subset of a FetchRequest an external downloader
// needs: credentials come from the URL's userinfo or from the OS's
// default SSH agent/known-hosts ("ambient credentials") for scp/sftp.
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	Path     string
}

// Downloader is the common interface every external (non-HTTP) transport
// implements.
type Downloader interface {
	// Download fetches Path from the remote host into outputPath and
	// returns the number of bytes written.
	Download(ctx context.Context, opts Options, outputPath string) (int64, error)
	// Meta identifies this downloader for diagnostics and `flux probe`.
	Meta() model.PluginMeta
}

// ParseOptions splits a scp://, sftp://, or ftp:// URL into Options.
func ParseOptions(rawURL string) (Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Options{}, fluxerr.Newf(fluxerr.Protocol, "cannot parse URL %q", rawURL).WithCause(err)
	}

	opts := Options{Host: u.Hostname(), Path: u.Path}
	if u.User != nil {
		opts.User = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	opts.Port = u.Port()
	return opts, nil
}

// DefaultPort fills in the scheme's well-known port when none was given.
func DefaultPort(scheme, port string) string {
	if port != "" {
		return port
	}
	switch scheme {
	case "scp", "sftp":
		return "22"
	case "ftp":
		return "21"
	default:
		return port
	}
}

// ForScheme resolves the Downloader implementation for scp/sftp/ftp.
// Returns a fluxerr.Protocol error for any other scheme.
func ForScheme(scheme string) (Downloader, error) {
	switch scheme {
	case "scp":
		return NewSCPDownloader(), nil
	case "sftp":
		return NewSFTPDownloader(), nil
	case "ftp":
		return NewFTPDownloader(), nil
	default:
		return nil, fluxerr.Newf(fluxerr.Protocol, "unsupported scheme %q", scheme)
	}
}

func createOutputFile(outputPath string) (*os.File, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fluxerr.Newf(fluxerr.Network, "cannot create output file %s", outputPath).WithCause(err)
	}
	return f, nil
}

func hostPort(opts Options) string {
	return fmt.Sprintf("%s:%s", opts.Host, opts.Port)
}
