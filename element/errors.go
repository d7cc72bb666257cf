package element

import (
	"fmt"

	"github.com/kadirpekel/streamtree/aierrors"
)

func errNilTag() error {
	return aierrors.Userf(aierrors.CodeNilTag, "createElement: tag must not be nil")
}

func errUnknownTag(tag Tag) error {
	return aierrors.Userf(aierrors.CodeInvalidProps, "createElement: unrecognized intrinsic tag %s", fmt.Sprintf("%T", tag))
}
