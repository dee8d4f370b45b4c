package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfirmationCode_Format(t *testing.T) {
	// Act
	code, err := GenerateConfirmationCode()

	// Assert
	require.NoError(t, err, "GenerateConfirmationCode should not return error")
	assert.Len(t, code, codeBytes*2, "Code should be hex-encoded")

	_, err = hex.DecodeString(code)
	assert.NoError(t, err, "Code should be valid hex")
}

func TestGenerateConfirmationCode_Unique(t *testing.T) {
	// Arrange
	seen := make(map[string]struct{})

	// Act
	for i := 0; i < 100; i++ {
		code, err := GenerateConfirmationCode()
		require.NoError(t, err)

		_, dup := seen[code]
		assert.False(t, dup, "Codes should not repeat")
		seen[code] = struct{}{}
	}
}

func TestHashCode_Success(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err, "Setup: GenerateConfirmationCode should not fail")

	// Act
	hash, err := HashCode(code)

	// Assert
	require.NoError(t, err, "HashCode should not return error")
	assert.NotEmpty(t, hash, "Hash should not be empty")
	assert.NotEqual(t, code, hash, "Hash should be different from code")
	assert.Contains(t, hash, "$argon2id$", "Hash should contain Argon2id identifier")
}

func TestHashCode_UniqueHashes(t *testing.T) {
	// Arrange
	code := "aabbccddeeff00112233"

	// Act
	hash1, err1 := HashCode(code)
	hash2, err2 := HashCode(code)

	// Assert
	require.NoError(t, err1, "First HashCode should not fail")
	require.NoError(t, err2, "Second HashCode should not fail")
	assert.NotEqual(t, hash1, hash2, "Same code should produce different hashes due to unique salt")
}

func TestVerifyCode_Correct(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)
	hash, err := HashCode(code)
	require.NoError(t, err, "Setup: HashCode should not fail")

	// Act
	match, err := VerifyCode(code, hash)

	// Assert
	require.NoError(t, err, "VerifyCode should not return error")
	assert.True(t, match, "Code should match its hash")
}

func TestVerifyCode_Incorrect(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)
	other, err := GenerateConfirmationCode()
	require.NoError(t, err)
	hash, err := HashCode(code)
	require.NoError(t, err, "Setup: HashCode should not fail")

	// Act
	match, err := VerifyCode(other, hash)

	// Assert
	require.NoError(t, err, "VerifyCode should not return error")
	assert.False(t, match, "Different code should not match hash")
}

func TestVerifyCode_InvalidHashFormat(t *testing.T) {
	// Arrange
	invalidHashes := []string{
		"",                                 // Empty
		"plain-text-not-hash",              // Plain text
		"$invalid$format$",                 // Invalid format
		"$argon2id$v=19$m=65536",           // Incomplete
		"$argon2id$v=19$m=65536$corrupted", // Corrupted
	}

	for _, invalidHash := range invalidHashes {
		t.Run(invalidHash, func(t *testing.T) {
			// Act
			match, err := VerifyCode("aabbccddeeff00112233", invalidHash)

			// Assert
			assert.Error(t, err, "VerifyCode should return error for invalid hash format")
			assert.False(t, match, "Match should be false for invalid hash")
		})
	}
}

// Benchmark tests
func BenchmarkHashCode(b *testing.B) {
	code, _ := GenerateConfirmationCode()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = HashCode(code)
	}
}

func BenchmarkVerifyCode(b *testing.B) {
	code, _ := GenerateConfirmationCode()
	hash, _ := HashCode(code)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = VerifyCode(code, hash)
	}
}
