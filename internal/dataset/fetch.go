package dataset

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/resilience"
)

// MirrorOptions configures a vendor drop mirror.
type MirrorOptions struct {
	Timeout time.Duration
	Retry   resilience.RetryConfig
}

// Mirror downloads every regular file of the FTP drop directory at dropURL
// into destDir, skipping files already present locally. Vendors republish a
// drop directory in place, so mirroring is idempotent per file name.
// Returns the number of files downloaded.
func Mirror(ctx context.Context, dropURL, destDir string, opts MirrorOptions) (int, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	host, dir, user, pass, err := parseDropURL(dropURL)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "dataset: create mirror dir %s", destDir)
	}

	log := zap.L().With(
		zap.String("component", "dataset.mirror"),
		zap.String("host", host),
		zap.String("dir", dir),
	)

	entries, err := resilience.DoVal(ctx, opts.Retry, func(ctx context.Context) ([]*ftp.Entry, error) {
		var listed []*ftp.Entry
		err := withConn(ctx, host, user, pass, opts.Timeout, func(conn *ftp.ServerConn) error {
			var listErr error
			listed, listErr = conn.List(dir)
			return listErr
		})
		return listed, err
	})
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: list drop %s", dropURL)
	}

	downloaded := 0
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		dest := filepath.Join(destDir, entry.Name)
		if _, statErr := os.Stat(dest); statErr == nil {
			log.Debug("already mirrored", zap.String("file", entry.Name))
			continue
		}

		remote := path.Join(dir, entry.Name)
		err := resilience.Do(ctx, opts.Retry, func(ctx context.Context) error {
			return withConn(ctx, host, user, pass, opts.Timeout, func(conn *ftp.ServerConn) error {
				return retrToFile(conn, remote, dest)
			})
		})
		if err != nil {
			return downloaded, eris.Wrapf(err, "dataset: mirror %s", entry.Name)
		}
		downloaded++
		log.Info("mirrored drop file", zap.String("file", entry.Name), zap.Uint64("size", entry.Size))
	}

	log.Info("drop mirror complete", zap.Int("downloaded", downloaded), zap.Int("remote_files", len(entries)))
	return downloaded, nil
}

// parseDropURL splits an ftp:// URL into host (with port), directory path,
// and credentials. Anonymous login is assumed when the URL carries no user.
func parseDropURL(rawURL string) (host, dir, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrapf(err, "dataset: parse drop url %q", rawURL)
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("dataset: drop url %q: expected ftp scheme, got %q", rawURL, u.Scheme)
	}
	if u.Path == "" {
		return "", "", "", "", eris.Errorf("dataset: drop url %q has no path", rawURL)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	user, pass = "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	return host, u.Path, user, pass, nil
}

// withConn dials the server, logs in, runs fn, and always disconnects.
func withConn(ctx context.Context, host, user, pass string, timeout time.Duration, fn func(conn *ftp.ServerConn) error) error {
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "dataset: ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login(user, pass); err != nil {
		return eris.Wrap(err, "dataset: ftp login")
	}
	return fn(conn)
}

// retrToFile downloads one remote file through a temp file so a failed
// transfer never leaves a truncated mirror entry behind.
func retrToFile(conn *ftp.ServerConn, remote, dest string) error {
	resp, err := conn.Retr(remote)
	if err != nil {
		return eris.Wrapf(err, "dataset: ftp retrieve %s", remote)
	}
	defer resp.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".mirror-*")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "dataset: download %s", remote)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "dataset: close temp file")
	}
	return eris.Wrapf(os.Rename(tmp.Name(), dest), "dataset: finalize %s", dest)
}
