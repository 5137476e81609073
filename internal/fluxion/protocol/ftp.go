package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// ftpDownloader is a minimal passive-mode FTP client: USER/PASS, TYPE I,
// PASV, RETR. No FTP client library appears anywhere in the retrieved
// pack (DESIGN.md), so this is built directly on net.textproto, the same
// line-oriented control-protocol primitive the standard library offers
// for SMTP/NNTP-shaped exchanges.
type ftpDownloader struct{}

// NewFTPDownloader returns the ftp:// Downloader.
func NewFTPDownloader() Downloader { return &ftpDownloader{} }

func (d *ftpDownloader) Meta() model.PluginMeta {
	return model.PluginMeta{Name: "ftp", Version: "1.0", SupportedSchemes: []string{"ftp"}}
}

func (d *ftpDownloader) Download(ctx context.Context, opts Options, outputPath string) (int64, error) {
	conn, err := net.Dial("tcp", hostPort(opts))
	if err != nil {
		return 0, fluxerr.Newf(fluxerr.Network, "ftp connect to %s failed", hostPort(opts)).WithCause(err)
	}
	defer conn.Close()

	text := textproto.NewConn(conn)
	if _, _, err := text.ReadResponse(220); err != nil {
		return 0, fluxerr.New(fluxerr.Network, "ftp server did not send a greeting").WithCause(err)
	}

	user := opts.User
	if user == "" {
		user = "anonymous"
	}
	pass := opts.Password
	if pass == "" {
		pass = "anonymous@"
	}

	if err := sendCmd(text, 331, "USER %s", user); err != nil {
		return 0, err
	}
	if err := sendCmd(text, 230, "PASS %s", pass); err != nil {
		return 0, err
	}
	if err := sendCmd(text, 200, "TYPE I"); err != nil {
		return 0, err
	}

	dataHost, dataPort, err := enterPassive(text, opts.Host)
	if err != nil {
		return 0, err
	}

	id, err := text.Cmd("RETR %s", opts.Path)
	if err != nil {
		return 0, fluxerr.Newf(fluxerr.Network, "ftp RETR %s failed", opts.Path).WithCause(err)
	}
	text.StartResponse(id)
	code, _, err := text.ReadCodeLine(150)
	text.EndResponse(id)
	if err != nil && code != 125 {
		return 0, fluxerr.Newf(fluxerr.Network, "ftp RETR %s rejected", opts.Path).WithCause(err)
	}

	dataConn, err := net.Dial("tcp", net.JoinHostPort(dataHost, dataPort))
	if err != nil {
		return 0, fluxerr.New(fluxerr.Network, "ftp data connection failed").WithCause(err)
	}
	defer dataConn.Close()

	out, err := createOutputFile(outputPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	written, copyErr := io.Copy(out, bufio.NewReaderSize(dataConn, 256*1024))
	if _, _, err := text.ReadResponse(226); err != nil && copyErr == nil {
		// Transfer completed but the closing status line was non-226;
		// surface it only when the copy itself looked clean.
		return written, fluxerr.New(fluxerr.Network, "ftp transfer did not close cleanly").WithCause(err)
	}
	if copyErr != nil {
		return written, fluxerr.Newf(fluxerr.Network, "ftp transfer of %s failed", opts.Path).WithCause(copyErr)
	}
	return written, nil
}

func sendCmd(text *textproto.Conn, expectCode int, format string, args ...any) error {
	id, err := text.Cmd(format, args...)
	if err != nil {
		return fluxerr.Newf(fluxerr.Network, "ftp command %q failed", fmt.Sprintf(format, args...)).WithCause(err)
	}
	text.StartResponse(id)
	defer text.EndResponse(id)
	if _, _, err := text.ReadResponse(expectCode); err != nil {
		return fluxerr.Newf(fluxerr.Network, "ftp command %q rejected", fmt.Sprintf(format, args...)).WithCause(err)
	}
	return nil
}

// enterPassive issues PASV and parses the h1,h2,h3,h4,p1,p2 tuple.
func enterPassive(text *textproto.Conn, controlHost string) (host, port string, err error) {
	id, err := text.Cmd("PASV")
	if err != nil {
		return "", "", fluxerr.New(fluxerr.Network, "ftp PASV failed").WithCause(err)
	}
	text.StartResponse(id)
	_, line, err := text.ReadResponse(227)
	text.EndResponse(id)
	if err != nil {
		return "", "", fluxerr.New(fluxerr.Network, "ftp PASV rejected").WithCause(err)
	}

	start := strings.IndexByte(line, '(')
	end := strings.IndexByte(line, ')')
	if start < 0 || end < 0 || end <= start {
		return "", "", fluxerr.Newf(fluxerr.Protocol, "malformed PASV response %q", line)
	}
	parts := strings.Split(line[start+1:end], ",")
	if len(parts) != 6 {
		return "", "", fluxerr.Newf(fluxerr.Protocol, "malformed PASV tuple %q", line)
	}
	p1, err1 := strconv.Atoi(parts[4])
	p2, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		return "", "", fluxerr.Newf(fluxerr.Protocol, "malformed PASV port in %q", line)
	}
	dataHost := strings.Join(parts[:4], ".")
	dataPort := strconv.Itoa(p1*256 + p2)
	if dataHost == "0.0.0.0" {
		dataHost = controlHost
	}
	return dataHost, dataPort, nil
}
