package engine

var (
	// number of messages automod can delete per day, across all chats (circuit breaker)
	QuotaDeleteDay = 5000
	// number of users automod can ban per day, across all chats (circuit breaker)
	QuotaBanDay = 500
)

type CounterRef struct {
	Name   string
	Val    string
	Period *string
}

type CounterDistinctRef struct {
	Name   string
	Bucket string
	Val    string
}

// Mutable container for all the possible side-effects from rule execution.
type Effects struct {
	// Decision recorded by the first rule to reach one. Nil means no rule decided, which is an ALLOW.
	Verdict *Verdict
	// List of counters which should be incremented as part of processing this message. These are collected during rule execution and persisted in bulk at the end.
	CounterIncrements []CounterRef
	// Similar to "CounterIncrements", but for "distinct" style counters
	CounterDistinctIncrements []CounterDistinctRef
	// If "true", the sender should be granted reputation, assuming the message is allowed.
	ReputationGrant bool
	// The positive word which triggered the grant
	ReputationWord string
}

// Records the verdict, unless one was already recorded. Returns true if this verdict was kept.
func (e *Effects) SetVerdict(v Verdict) bool {
	if e.Verdict != nil {
		return false
	}
	e.Verdict = &v
	return true
}

// Returns the recorded verdict, defaulting to ALLOW.
func (e *Effects) FinalVerdict() Verdict {
	if e.Verdict == nil {
		return Allow()
	}
	return *e.Verdict
}

// Enqueues the named counter to be incremented at the end of all rule processing. Will automatically increment for all time periods.
//
// "name" is the counter namespace.
// "val" is the specific counter with that namespace.
func (e *Effects) Increment(name, val string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val})
}

// Enqueues the named counter to be incremented at the end of all rule processing. Will only increment the indicated time period bucket.
func (e *Effects) IncrementPeriod(name, val string, period string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val, Period: &period})
}

// Enqueues the named "distinct value" counter based on the supplied string value ("val") to be incremented at the end of all rule processing. Will automatically increment for all time periods.
func (e *Effects) IncrementDistinct(name, bucket, val string) {
	e.CounterDistinctIncrements = append(e.CounterDistinctIncrements, CounterDistinctRef{Name: name, Bucket: bucket, Val: val})
}

func (e *Effects) GrantReputation(word string) {
	e.ReputationGrant = true
	if e.ReputationWord == "" {
		e.ReputationWord = word
	}
}
