package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	// RecordIDSize is used for applications, drafts and seeded institutions.
	RecordIDSize = 32

	// FieldIDSize only has to be unique within one form.
	FieldIDSize = 12
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func NanoID() string {
	return NewID(RecordIDSize)
}

// FieldID names a field inside a builder draft or a rendered form.
func FieldID() string {
	return NewID(FieldIDSize)
}

func NewID(size int) string {
	if size <= 0 {
		size = RecordIDSize
	}

	return gonanoid.MustGenerate(idAlphabet, size)
}
