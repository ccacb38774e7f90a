package logger

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinHashSaltLength is the shortest salt InitHashSalt accepts.
const MinHashSaltLength = 32

var hashSalt = randomSalt()

// InitHashSalt sets the salt used by HashUserID and HashChatID. An empty salt
// keeps the random per-process salt, so hashes are not linkable across restarts.
func InitHashSalt(salt string) error {
	if salt == "" {
		return nil
	}
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("LOG_HASH_SALT must be at least %d characters", MinHashSaltLength)
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets a fixed salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func randomSalt() string {
	b := make([]byte, MinHashSaltLength)
	if _, err := rand.Read(b); err != nil {
		panic(errors.Join(errors.New("failed to generate log hash salt"), err))
	}
	return hex.EncodeToString(b)
}

// HashUserID creates a privacy-preserving hash of a user ID.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

func hashID(id int64) string {
	data := fmt.Sprintf("%d:%s", id, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription redacts free text such as expense names, keeping
// only its shape.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), utf8.RuneCountInString(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return fmt.Sprintf("<%d chars>", n)
	}

	prefix := []rune(text)[:3]
	return fmt.Sprintf("%s...<%d chars>", string(prefix), n)
}
