package harvest

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/mvp-joe/docharvest/internal/logger"
	"github.com/mvp-joe/docharvest/internal/record"
)

// DefaultConstantDocs documents common module constants whose runtime doc
// is empty (a float has no docstring of its own).
var DefaultConstantDocs = map[string]string{
	"pi":  "The mathematical constant pi.",
	"e":   "The mathematical constant e.",
	"tau": "The mathematical constant tau, equal to 2*pi.",
	"inf": "A floating-point positive infinity.",
	"nan": "A floating-point \"not a number\" (NaN) value.",
}

// ErrMalformedSnapshot indicates an introspector returned nothing usable.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// SkippedItem is an item left out of the record.
type SkippedItem struct {
	Group  string
	Name   string
	Reason string
}

// Report summarises recoverable problems from one harvest run.
type Report struct {
	Skipped            []SkippedItem
	SignatureFallbacks []string // qualified names emitted with an empty parameter list
	Excluded           []string // module members dropped by exclude patterns
}

func (r *Report) skip(group, name, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{Group: group, Name: name, Reason: reason})
}

// ProgressReporter receives harvest progress events.
type ProgressReporter interface {
	OnIntrospectStart(req Request)
	OnHarvestStart(totalItems int)
	OnItem(group, name string)
	OnHarvestComplete(stats record.Stats, report *Report)
}

// NoOpProgressReporter ignores every event.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnIntrospectStart(Request)               {}
func (NoOpProgressReporter) OnHarvestStart(int)                      {}
func (NoOpProgressReporter) OnItem(string, string)                   {}
func (NoOpProgressReporter) OnHarvestComplete(record.Stats, *Report) {}

// Options configures a Harvester.
type Options struct {
	// DocLimit is the paragraph cut-off passed to CleanDocstring.
	DocLimit int
	// ModuleExclude holds glob patterns matched against bare module member names.
	ModuleExclude []string
	// ConstantDocs supplies documentation for module constants whose runtime
	// doc is empty, keyed by bare member name. Nil means DefaultConstantDocs.
	ConstantDocs map[string]string
	Progress     ProgressReporter
	Logger       *zap.SugaredLogger
}

// Harvester turns raw snapshots into interchange records.
type Harvester struct {
	introspector Introspector
	docLimit     int
	exclude      []glob.Glob
	constantDocs map[string]string
	progress     ProgressReporter
	log          *zap.SugaredLogger
}

// New creates a Harvester. Invalid exclude patterns are a configuration error.
func New(introspector Introspector, opts Options) (*Harvester, error) {
	h := &Harvester{
		introspector: introspector,
		docLimit:     opts.DocLimit,
		constantDocs: opts.ConstantDocs,
		progress:     opts.Progress,
		log:          opts.Logger,
	}
	if h.docLimit <= 0 {
		h.docLimit = DefaultDocLimit
	}
	if h.constantDocs == nil {
		h.constantDocs = DefaultConstantDocs
	}
	if h.progress == nil {
		h.progress = NoOpProgressReporter{}
	}
	if h.log == nil {
		h.log = logger.ComponentLogger("harvest")
	}

	for _, pattern := range opts.ModuleExclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid module exclude pattern %q", pattern)
		}
		h.exclude = append(h.exclude, g)
	}

	return h, nil
}

// Harvest introspects the runtime and builds a fresh record. Per-item
// problems are logged and collected in the report; an error is returned only
// when the introspector fails outright.
func (h *Harvester) Harvest(ctx context.Context, req Request) (*record.HarvestRecord, *Report, error) {
	h.progress.OnIntrospectStart(req)

	snap, err := h.introspector.Introspect(ctx, req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "introspection failed")
	}
	if snap == nil {
		return nil, nil, errors.Wrap(ErrMalformedSnapshot, "introspector returned no snapshot")
	}

	rec, report := h.Build(snap, req)
	return rec, report, nil
}

// Build converts a snapshot into a record. It is separate from Harvest so
// snapshots captured earlier can be rebuilt without a runtime.
func (h *Harvester) Build(snap *Snapshot, req Request) (*record.HarvestRecord, *Report) {
	report := &Report{}
	module := req.Module
	if module == "" {
		module = snap.Module.Name
	}
	rec := record.New(snap.RuntimeVersion, module)

	h.progress.OnHarvestStart(countMembers(snap))

	rec.BuiltinFunctions = h.buildBuiltins(snap.Builtins, report)

	types := indexGroups(snap.Types)
	for _, typeName := range typeOrder(req.Types, snap.Types) {
		group, ok := types[typeName]
		if !ok {
			h.warnSkip(report, record.TypeGroup(typeName), typeName, "type missing from snapshot")
			continue
		}
		if !group.Resolved {
			h.warnSkip(report, record.TypeGroup(typeName), typeName, reasonOr(group.Error, "type not resolvable"))
			continue
		}
		rec.TypeMethods.Set(typeName, h.buildMethods(group, report))
	}

	if module != "" {
		rec.ModuleCompletions = h.buildModule(module, snap.Module, report)
	}

	stats := rec.Stats()
	h.log.Infow("Harvest complete",
		logger.FieldRuntime, rec.ShortRuntimeVersion(),
		logger.FieldCount, stats.Total(),
		"skipped", len(report.Skipped),
		"signature_fallbacks", len(report.SignatureFallbacks))
	h.progress.OnHarvestComplete(stats, report)

	return rec, report
}

func (h *Harvester) buildBuiltins(members []RawMember, report *Report) []record.CompletionItem {
	items := make([]record.CompletionItem, 0, len(members))
	for _, m := range members {
		h.progress.OnItem(record.GroupBuiltins, m.Name)
		if !m.Resolved {
			h.warnSkip(report, record.GroupBuiltins, m.Name, reasonOr(m.Error, "name not resolvable"))
			continue
		}
		if !m.Callable {
			h.warnSkip(report, record.GroupBuiltins, m.Name, "not callable")
			continue
		}
		items = append(items, h.function(record.GroupBuiltins, m.Name, m.Name, m, report))
	}
	return items
}

func (h *Harvester) buildMethods(group RawGroup, report *Report) []record.CompletionItem {
	groupID := record.TypeGroup(group.Name)
	items := make([]record.CompletionItem, 0, len(group.Members))
	for _, m := range group.Members {
		h.progress.OnItem(groupID, m.Name)
		if isPrivate(m.Name) {
			continue
		}
		if !m.Resolved {
			h.warnSkip(report, groupID, m.Name, reasonOr(m.Error, "attribute not resolvable"))
			continue
		}
		if !m.Callable {
			continue
		}
		// Methods are recorded by bare name; the struct they land in names the type.
		items = append(items, h.function(groupID, m.Name, group.Name+"."+m.Name, m, report))
	}
	return items
}

func (h *Harvester) buildModule(module string, group RawGroup, report *Report) []record.CompletionItem {
	if !group.Resolved {
		h.warnSkip(report, record.GroupModule, module, reasonOr(group.Error, "module not importable"))
		return []record.CompletionItem{}
	}

	items := make([]record.CompletionItem, 0, len(group.Members))
	for _, m := range group.Members {
		h.progress.OnItem(record.GroupModule, m.Name)
		if isPrivate(m.Name) {
			continue
		}
		if h.excluded(m.Name) {
			report.Excluded = append(report.Excluded, m.Name)
			h.log.Debugw("Excluded module member", logger.FieldItem, m.Name)
			continue
		}
		if !m.Resolved {
			h.warnSkip(report, record.GroupModule, m.Name, reasonOr(m.Error, "attribute not resolvable"))
			continue
		}

		qualified := module + "." + m.Name
		if m.Callable {
			items = append(items, h.function(record.GroupModule, qualified, qualified, m, report))
			continue
		}

		doc := CleanDocstring(m.Doc, h.docLimit)
		if doc == "" {
			doc = CleanDocstring(h.constantDocs[m.Name], h.docLimit)
		}
		items = append(items, record.Constant(qualified, m.Value, doc))
	}
	return items
}

// function extracts a function-form item named name. A failed signature yields
// an empty parameter list; the item is still emitted.
func (h *Harvester) function(group, name, qualified string, m RawMember, report *Report) record.CompletionItem {
	params := RenderParameters(m.Params)
	if m.SignatureError != "" {
		params = []string{}
		report.SignatureFallbacks = append(report.SignatureFallbacks, qualified)
		h.log.Warnw("Signature unavailable, using empty parameter list",
			logger.FieldGroup, group,
			logger.FieldItem, qualified,
			logger.FieldError, m.SignatureError)
	}
	return record.Function(name, params, CleanDocstring(m.Doc, h.docLimit))
}

func (h *Harvester) excluded(name string) bool {
	for _, g := range h.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (h *Harvester) warnSkip(report *Report, group, name, reason string) {
	report.skip(group, name, reason)
	h.log.Warnw("Skipping item",
		logger.FieldGroup, group,
		logger.FieldItem, name,
		logger.FieldReason, reason)
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

func indexGroups(groups []RawGroup) map[string]RawGroup {
	out := make(map[string]RawGroup, len(groups))
	for _, g := range groups {
		out[g.Name] = g
	}
	return out
}

// typeOrder is the requested order, or the snapshot order when the request
// names no types.
func typeOrder(requested []string, groups []RawGroup) []string {
	if len(requested) > 0 {
		return requested
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}

func countMembers(snap *Snapshot) int {
	total := len(snap.Builtins) + len(snap.Module.Members)
	for _, g := range snap.Types {
		total += len(g.Members)
	}
	return total
}
