// Package auth implements the C3 credential store: a read-only mapping from
// "user:password" to a maximum AccessLevel, backed by an htpasswd-style
// password file and a group file, refreshed whenever either file's mtime
// advances (spec.md §4.3).
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Sentinel errors for Authorize; the caller (router) never distinguishes
// these on the wire beyond "authorization failure", per spec.md §4.3.
var (
	ErrBadCredentials = errors.New("auth: malformed user:password")
	ErrUnknownUser    = errors.New("auth: unknown user")
	ErrHashMismatch   = errors.New("auth: password does not match")
)

// User mirrors spec.md's User record: immutable within a snapshot.
type User struct {
	Name           string
	PasswordHash   string
	MaxAccessLevel AccessLevel
}

// snapshot is one fully-built, immutable view of the credential files.
type snapshot struct {
	users map[string]User
}

// Store is the C3 credential store. It is safe for concurrent use: readers
// only ever see a fully-built snapshot, and reloading builds a new snapshot
// before swapping it in, so a parse failure never disturbs the prior state.
type Store struct {
	passwdPath string
	groupPath  string

	mu          sync.Mutex
	current     *snapshot
	lastRefresh time.Time
}

// NewStore creates a credential store reading from the given htpasswd-style
// password file and group file. The first Authorize call triggers the
// initial load.
func NewStore(passwdPath, groupPath string) *Store {
	return &Store{passwdPath: passwdPath, groupPath: groupPath}
}

// Authorize validates a single "user:password" string, reloading the
// backing files first if either has changed since the last refresh. On
// success it returns the user's maximum access level across every group
// they belong to.
func (s *Store) Authorize(credentials string) (AccessLevel, error) {
	idx := strings.IndexByte(credentials, ':')
	if idx < 0 {
		return 0, ErrBadCredentials
	}
	user, password := credentials[:idx], credentials[idx+1:]
	if user == "" {
		return 0, ErrBadCredentials
	}

	snap, err := s.snapshotForRead()
	if err != nil {
		return 0, err
	}

	u, ok := snap.users[user]
	if !ok {
		return 0, ErrUnknownUser
	}

	computed, err := crypt(password, u.PasswordHash)
	if err != nil {
		return 0, ErrHashMismatch
	}
	if computed != u.PasswordHash {
		return 0, ErrHashMismatch
	}
	return u.MaxAccessLevel, nil
}

// snapshotForRead returns the current snapshot, reloading first if the
// underlying files changed. Reload failures leave the prior snapshot (if
// any) untouched; if there is no prior snapshot, the error is returned.
func (s *Store) snapshotForRead() (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale, err := s.isStaleLocked()
	if err != nil && s.current == nil {
		return nil, fmt.Errorf("auth: initial load failed: %w", err)
	}
	if stale {
		if snap, loadErr := s.loadLocked(); loadErr == nil {
			s.current = snap
			s.lastRefresh = time.Now()
		} else if s.current == nil {
			return nil, fmt.Errorf("auth: initial load failed: %w", loadErr)
		}
	}
	return s.current, nil
}

func (s *Store) isStaleLocked() (bool, error) {
	if s.current == nil {
		return true, nil
	}
	pInfo, err := os.Stat(s.passwdPath)
	if err != nil {
		return false, err
	}
	gInfo, err := os.Stat(s.groupPath)
	if err != nil {
		return false, err
	}
	if !pInfo.ModTime().Before(s.lastRefresh) || !gInfo.ModTime().Before(s.lastRefresh) {
		return true, nil
	}
	return false, nil
}

// loadLocked parses both files into a brand-new snapshot without mutating
// s.current, so a parse error never corrupts the live snapshot.
func (s *Store) loadLocked() (*snapshot, error) {
	hashes, err := parsePasswdFile(s.passwdPath)
	if err != nil {
		return nil, fmt.Errorf("auth: parse passwd file: %w", err)
	}
	memberships, err := parseGroupFile(s.groupPath)
	if err != nil {
		return nil, fmt.Errorf("auth: parse group file: %w", err)
	}

	users := make(map[string]User, len(hashes))
	for name, hash := range hashes {
		best := LevelRead
		if levels, ok := memberships[name]; ok {
			for _, lvl := range levels {
				if lvl > best {
					best = lvl
				}
			}
		}
		users[name] = User{Name: name, PasswordHash: hash, MaxAccessLevel: best}
	}
	return &snapshot{users: users}, nil
}

// parsePasswdFile parses "user:hash" lines, one per non-empty line, hash
// exactly 13 bytes.
func parsePasswdFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("line %d: missing ':'", lineNo)
		}
		user, hash := line[:idx], line[idx+1:]
		if user == "" || len(hash) != 13 {
			return nil, fmt.Errorf("line %d: malformed entry", lineNo)
		}
		out[user] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseGroupFile parses "level:::comma,separated,users" lines and returns,
// per user, the list of levels they were granted (a user may appear in
// several groups; Store.loadLocked takes the max).
func parseGroupFile(path string) (map[string][]AccessLevel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string][]AccessLevel)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":::", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected LEVEL:::users", lineNo)
		}
		level, err := ParseAccessLevel(parts[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		for _, user := range strings.Split(parts[1], ",") {
			user = strings.TrimSpace(user)
			if user == "" {
				continue
			}
			out[user] = append(out[user], level)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
