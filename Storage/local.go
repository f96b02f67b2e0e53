package Storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// MaxImageSide bounds the longer side of stored images
const MaxImageSide = 1600

var ErrOutsideRoot = errors.New("path is outside the upload directory")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// Local stores uploads on disk under Root and serves them from PublicPrefix
type Local struct {
	Root         string
	PublicPrefix string
}

func NewLocal(root, publicPrefix string) *Local {
	return &Local{Root: root, PublicPrefix: strings.TrimRight(publicPrefix, "/")}
}

// SanitizeName keeps letters, digits, dots and dashes; everything else becomes "_"
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

// Save writes r to <Root>/<subdir>/<uuid>-<name> and returns its public URL
func (l *Local) Save(subdir, filename string, r io.Reader) (string, error) {
	dir, name, err := l.target(subdir, filename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return l.url(subdir, name), nil
}

// SaveImage decodes r, shrinks it to fit MaxImageSide and stores it in the format
// implied by filename
func (l *Local) SaveImage(subdir, filename string, r io.Reader) (string, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, MaxImageSide, MaxImageSide, imaging.Lanczos)

	dir, name, err := l.target(subdir, filename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(85)); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("encode image: %w", err)
	}
	return l.url(subdir, name), nil
}

// SaveUpload stores a multipart file, going through SaveImage for formats imaging can read
func (l *Local) SaveUpload(subdir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if _, err := imaging.FormatFromFilename(fh.Filename); err == nil {
		return l.SaveImage(subdir, fh.Filename, src)
	}
	return l.Save(subdir, fh.Filename, src)
}

// Remove deletes the file behind a URL returned by Save. Missing files are not an error.
func (l *Local) Remove(url string) error {
	rel := strings.TrimPrefix(url, l.PublicPrefix+"/")
	if rel == url || rel == "" {
		return ErrOutsideRoot
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return err
	}
	full, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return ErrOutsideRoot
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Local) target(subdir, filename string) (string, string, error) {
	subdir = path.Clean("/" + subdir)[1:]
	dir := filepath.Join(l.Root, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create upload directory: %w", err)
	}
	return dir, uuid.NewString() + "-" + SanitizeName(filename), nil
}

func (l *Local) url(subdir, name string) string {
	subdir = path.Clean("/" + subdir)[1:]
	if subdir == "" {
		return l.PublicPrefix + "/" + name
	}
	return l.PublicPrefix + "/" + subdir + "/" + name
}
