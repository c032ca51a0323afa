package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// NameSeparator joins the segments of a composite name.
const NameSeparator = "."

// JoinName builds a composite name from segments such as an owning module
// and an operation label. Surrounding spaces are trimmed; a segment that is
// then empty, is not valid UTF-8, or contains a control character or the
// separator is rejected.
func JoinName(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", errors.Wrap(ErrInvalidName, "no name segments")
	}
	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if err := validateSegment(seg); err != nil {
			return "", errors.Wrapf(err, "segment %d", i)
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, NameSeparator), nil
}

// ValidateName checks a composite name: one or more valid segments joined
// by NameSeparator.
func ValidateName(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidName, "empty name")
	}
	for _, seg := range strings.Split(name, NameSeparator) {
		if seg != strings.TrimSpace(seg) {
			return errors.Wrapf(ErrInvalidName, "%q: segment %q has surrounding spaces", name, seg)
		}
		if err := validateSegment(seg); err != nil {
			return errors.Wrapf(err, "%q", name)
		}
	}
	return nil
}

func validateSegment(seg string) error {
	switch {
	case seg == "":
		return errors.Wrap(ErrInvalidName, "empty segment")
	case !utf8.ValidString(seg):
		return errors.Wrapf(ErrInvalidName, "segment %q is not valid UTF-8", seg)
	case strings.Contains(seg, NameSeparator):
		return errors.Wrapf(ErrInvalidName, "segment %q contains %q", seg, NameSeparator)
	case strings.IndexFunc(seg, unicode.IsControl) >= 0:
		return errors.Wrapf(ErrInvalidName, "segment %q contains a control character", seg)
	}
	return nil
}
