package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all content store implementations. Callers check them with
// errors.Is; implementations wrap them with the content ID:
//
//	if !exists {
//	    return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
//	}

var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// This error is returned when:
	//   - ReadContent() called with non-existent ContentID
	//   - GetContentSize() called with non-existent ContentID
	//   - CopyContent() called with a non-existent source
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates the ContentID cannot be mapped to the
	// backend namespace (empty, or escaping the storage root).
	ErrInvalidContentID = errors.New("invalid content id")
)
