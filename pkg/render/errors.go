package render

import (
	"errors"
	"fmt"
)

var (
	ErrAlignment           = errors.New("phonetic captions do not align with characters")
	ErrMalformedDefinition = errors.New("malformed definition")
)

// AlignmentError reports an entry whose phonetic syllables do not match its
// character count.
type AlignmentError struct {
	UID      string
	Chars    int
	Captions int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: %d characters but %d phonetic captions", e.UID, e.Chars, e.Captions)
}

func (e *AlignmentError) Is(target error) bool { return target == ErrAlignment }

// MalformedDefinitionError reports a sense not wrapped in "/".
type MalformedDefinitionError struct {
	Sense string
}

func (e *MalformedDefinitionError) Error() string {
	return fmt.Sprintf("malformed definition sense %q", e.Sense)
}

func (e *MalformedDefinitionError) Is(target error) bool { return target == ErrMalformedDefinition }
