package candh

// SkipReason names a recovered condition that left a property unchanged.
type SkipReason string

// Skip reasons reported to Observer.PropertySkipped and logged as events.
const (
	// SkipNoHandler: the property kind has no dispatch branch.
	SkipNoHandler SkipReason = "no_handler"

	// SkipReferenceWithoutIdentity: the source references an entity that
	// has no identity yet.
	SkipReferenceWithoutIdentity SkipReason = "reference_without_identity"

	// SkipCollectionUnavailable: the destination collection is absent and
	// could not be instantiated.
	SkipCollectionUnavailable SkipReason = "collection_unavailable"
)

// Observer receives engine events. Implementations must be safe for
// concurrent use when the Engine is shared.
type Observer interface {
	// CopyCompleted is called once per top-level copy that did not fail.
	CopyCompleted(typeName string, status ChangeStatus)

	// PropertySkipped is called for every recovered condition.
	PropertySkipped(typeName, property string, reason SkipReason)
}

type nopObserver struct{}

func (nopObserver) CopyCompleted(string, ChangeStatus) {}

func (nopObserver) PropertySkipped(string, string, SkipReason) {}
