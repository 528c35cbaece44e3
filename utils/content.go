package utils

import (
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

// DetectFileContentType sniffs the MIME type of a file's content by reading
// its first 512 bytes. Always returns a valid content-type, falling back to
// "application/octet-stream" when nothing else matches.
func DetectFileContentType(fname string) (string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil && err != io.EOF {
		return "", err
	}

	return http.DetectContentType(buffer), nil
}

// IsValidURL reports whether uri is a well formed, absolute URL.
func IsValidURL(uri string) bool {
	u, err := url.ParseRequestURI(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return true
}

// FetchResource downloads the resource at url (the CLI uses it for a remote
// source image) into a temporary file and returns it open for reading. The caller owns the returned file
// and is responsible for removing it once done.
func FetchResource(url string) (*os.File, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to download resource from %s", url)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unable to download resource from %s: status %s", url, res.Status)
	}

	tmpfile, err := os.CreateTemp("", "lqr-resource")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create temporary file")
	}

	if _, err := io.Copy(tmpfile, res.Body); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, errors.Wrap(err, "unable to copy the downloaded resource to the destination file")
	}
	if _, err := tmpfile.Seek(0, io.SeekStart); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, errors.Wrap(err, "unable to rewind the downloaded resource")
	}
	return tmpfile, nil
}
