package types

type BundleLocation struct {
	Primary   string
	Fallbacks []string
}

// Candidates returns the primary URL followed by the fallbacks in order.
func (l BundleLocation) Candidates() []string {
	out := make([]string, 0, len(l.Fallbacks)+1)
	if l.Primary != "" {
		out = append(out, l.Primary)
	}
	for _, fallback := range l.Fallbacks {
		if fallback != "" {
			out = append(out, fallback)
		}
	}
	return out
}

type FetchItem struct {
	Bundle   string
	Gateway  bool
	Location BundleLocation
}

type FetchOptions struct {
	Parallel   bool
	MaxWorkers int
}

type FetchAttempt struct {
	URL   string
	Kind  FetchErrorKind
	Error string
}

type FetchResult struct {
	Bundle           string
	Gateway          bool
	Success          bool
	ResolvedLocation string
	Errors           []string
	Attempts         []FetchAttempt
	Content          []byte
}

// BundleFailure is a failed fetch classified by severity. Substitute is only
// set for non-gateway bundles.
type BundleFailure struct {
	Bundle     string
	Errors     []string
	Substitute string
}

type MappingReport struct {
	TotalMapped     int
	ByCategory      map[string][]string
	Duplicates      map[string][]string
	PotentialIssues []string
}
