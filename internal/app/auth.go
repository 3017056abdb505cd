package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const (
	DefaultAuthFile = "auth.secret"
	AuthRealm       = "Advent Kalender Admin"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var (
	ErrInvalidAuthFile = errors.New("invalid auth file format (expected: username:hash)")
	ErrInvalidHash     = errors.New("invalid hash format")
	ErrAborted         = errors.New("aborted")
)

// Authenticator guards admin routes with Basic Auth against an Argon2id hash.
// An Authenticator without credentials lets every request through.
type Authenticator struct {
	User   string
	File   string
	hash   []byte
	logger *zap.Logger
}

// ResolveAuthFile picks the credentials file: AUTH_FILE, then the configured
// path, then auth.secret next to the binary.
func ResolveAuthFile(configured string) (string, error) {
	if env := os.Getenv("AUTH_FILE"); env != "" {
		return env, nil
	}
	if configured != "" {
		return configured, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadAuthenticator reads username:hash from path. A missing file is not an
// error: the admin routes stay unprotected and a warning is logged.
func LoadAuthenticator(path string, logger *zap.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Authenticator{File: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("NO AUTH FILE FOUND - ADMIN ROUTES UNPROTECTED! Local development only.",
				zap.String("expected_file", path),
				zap.String("hint", "run: advent-kalender hash-password"))
			return a, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalidAuthFile
	}

	a.User = parts[0]
	a.hash = []byte(parts[1])
	logger.Info("basic auth enabled for admin routes", zap.String("user", a.User), zap.String("file", path))
	return a, nil
}

// Enabled reports whether credentials were loaded.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.hash != nil
}

func (a *Authenticator) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, ErrInvalidHash
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: not an argon2id hash", ErrInvalidHash)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(decodedHash)))
	return subtle.ConstantTimeCompare(decodedHash, computed) == 1, nil
}

// Require is a middleware that enforces Basic Auth with Argon2id.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			passMatch, err = VerifyPassword(pass, string(a.hash))
			if err != nil {
				a.log().Error("error verifying password", zap.Error(err))
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", AuthRealm))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			a.log().Warn("failed auth attempt", zap.String("remote", r.RemoteAddr), zap.String("user", user))
			return
		}

		next(w, r)
	}
}

// CreateAuthFile writes username:hash to path with mode 0400. An existing
// file is replaced when overwrite is set; otherwise the user is asked on in.
func CreateAuthFile(path, username, password string, overwrite bool, in io.Reader, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			fmt.Fprintf(out, "Auth file already exists: %s\n", path)
			fmt.Fprint(out, "Overwrite? (y/N): ")
			response, _ := bufio.NewReader(in).ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return ErrAborted
			}
		}
		// 0400 files cannot be truncated in place
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(path, []byte(content), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	fmt.Fprintf(out, "Auth file created: %s (mode: 0400 read-only)\n", path)
	fmt.Fprintf(out, "   Username: %s\n", username)
	return nil
}
