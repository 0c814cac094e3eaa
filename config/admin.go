package config

import (
	"fmt"
	"os"
	"sync/atomic"
)

// adminSnapshot is an immutable view of the admin allowlist. Readers always
// see a complete snapshot; Reload swaps the whole thing atomically, so an
// in-flight IsAdmin check never observes a half-updated list.
type adminSnapshot struct {
	chatIDs map[int64]struct{}
}

// AdminList holds the chat identifiers allowed to run admin operations.
// The list is re-read from the environment on demand via Reload.
type AdminList struct {
	current atomic.Pointer[adminSnapshot]
}

// LoadAdminList reads ADMIN_CHAT_IDS and returns the initial allowlist.
// An empty allowlist is a configuration error: the bot would be unmanageable.
func LoadAdminList() (*AdminList, error) {
	l := &AdminList{}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the .env file and the ADMIN_CHAT_IDS variable and swaps in
// a fresh snapshot. Concurrent readers keep the old snapshot until the swap.
func (l *AdminList) Reload() error {
	// Pick up edits made to .env while the process is running. Already-set
	// process env vars win, so ADMIN_CHAT_IDS is cleared first and restored
	// when the .env file does not provide a replacement.
	prev, had := os.LookupEnv("ADMIN_CHAT_IDS")
	_ = os.Unsetenv("ADMIN_CHAT_IDS")
	if err := loadEnvFile(); err != nil {
		return fmt.Errorf("failed to reload .env file: %w", err)
	}
	if _, ok := os.LookupEnv("ADMIN_CHAT_IDS"); !ok && had {
		_ = os.Setenv("ADMIN_CHAT_IDS", prev)
	}

	ids := getEnvInt64Slice("ADMIN_CHAT_IDS", nil)
	if len(ids) == 0 {
		return fmt.Errorf("ADMIN_CHAT_IDS is required and must contain at least one chat id")
	}

	snap := &adminSnapshot{chatIDs: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		snap.chatIDs[id] = struct{}{}
	}
	l.current.Store(snap)
	return nil
}

// IsAdmin reports whether the chat id is on the current allowlist
func (l *AdminList) IsAdmin(chatID int64) bool {
	snap := l.current.Load()
	if snap == nil {
		return false
	}
	_, ok := snap.chatIDs[chatID]
	return ok
}

// Count returns the number of configured administrators
func (l *AdminList) Count() int {
	snap := l.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.chatIDs)
}
