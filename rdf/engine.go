package rdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// blankNodeRecord lists the quads mentioning a blank node and caches its
// first-degree hash, which depends only on those quads.
type blankNodeRecord struct {
	quads []Quad
	hash  string
}

// engine holds the state of one canonicalization run.
type engine struct {
	alg     Algorithm
	hashAlg HashAlgorithm
	strict  bool

	quads         []Quad
	records       map[string]*blankNodeRecord
	labels        []string // first-appearance order, keeps runs reproducible
	nonNormalized map[string]bool
	canonical     *IdentifierIssuer

	sched  *scheduler
	logger *log.Logger
}

type nDegreeResult struct {
	hash   string
	issuer *IdentifierIssuer
}

func newEngine(sched *scheduler, opts CanonOptions) *engine {
	return &engine{
		alg:           opts.Algorithm,
		hashAlg:       opts.HashAlgorithm,
		strict:        opts.StrictIRIValidation,
		records:       map[string]*blankNodeRecord{},
		nonNormalized: map[string]bool{},
		canonical:     NewIdentifierIssuer(canonicalPrefix),
		sched:         sched,
		logger:        opts.Logger,
	}
}

// run executes all phases and returns the rewritten quads and their sorted lines.
func (e *engine) run(quads []Quad) ([]Quad, []string, error) {
	if err := e.index(quads); err != nil {
		return nil, nil, err
	}
	e.logger.Debug("indexed dataset", "quads", len(e.quads), "blank_nodes", len(e.labels))

	ambiguous, err := e.labelFirstDegree()
	if err != nil {
		return nil, nil, err
	}
	e.logger.Debug("first-degree labeling done",
		"issued", e.canonical.Len(), "ambiguous_groups", len(ambiguous))

	if err := e.labelNDegree(ambiguous); err != nil {
		return nil, nil, err
	}
	e.logger.Debug("n-degree labeling done", "issued", e.canonical.Len(), "steps", e.sched.steps)

	out, lines := e.rewrite()
	return out, lines, nil
}

// index records, for every blank node, the quads mentioning it in subject, object or
// graph position. A quad is listed once per position the label occupies.
func (e *engine) index(quads []Quad) error {
	e.quads = make([]Quad, 0, len(quads))
	for i, q := range quads {
		if err := q.Validate(); err != nil {
			return wrapCanonError("index", "", fmt.Errorf("quad %d: %w", i, err))
		}
		if e.strict {
			if err := validateQuadIRIs(q); err != nil {
				return wrapCanonError("index", "", fmt.Errorf("quad %d: %w", i, err))
			}
		}
		e.quads = append(e.quads, q)
		if !q.HasBlankNode() {
			continue
		}
		for _, t := range [...]Term{q.S, q.O, q.G} {
			b, ok := t.(BlankNode)
			if !ok {
				continue
			}
			label := b.String()
			rec, ok := e.records[label]
			if !ok {
				rec = &blankNodeRecord{}
				e.records[label] = rec
				e.labels = append(e.labels, label)
			}
			rec.quads = append(rec.quads, q)
			e.nonNormalized[label] = true
		}
	}
	return nil
}

// labelFirstDegree issues canonical identifiers to every blank node whose first-degree
// hash is unique, repeating until a pass issues nothing. It returns the remaining
// groups of blank nodes sharing a hash.
func (e *engine) labelFirstDegree() (map[string][]string, error) {
	for {
		hashToLabels := map[string][]string{}
		for _, label := range e.labels {
			if !e.nonNormalized[label] {
				continue
			}
			hash, err := e.hashFirstDegreeQuads(label)
			if err != nil {
				return nil, err
			}
			hashToLabels[hash] = append(hashToLabels[hash], label)
		}

		progress := false
		for _, hash := range sortedKeys(hashToLabels) {
			labels := hashToLabels[hash]
			if len(labels) > 1 {
				continue
			}
			e.canonical.ID(labels[0])
			delete(e.nonNormalized, labels[0])
			delete(hashToLabels, hash)
			progress = true
		}
		if !progress {
			return hashToLabels, nil
		}
	}
}

// labelNDegree breaks ties between blank nodes with equal first-degree hashes.
func (e *engine) labelNDegree(hashToLabels map[string][]string) error {
	for _, hash := range sortedKeys(hashToLabels) {
		var results []nDegreeResult
		for _, label := range hashToLabels[hash] {
			if e.canonical.HasID(label) {
				continue
			}
			issuer := NewIdentifierIssuer(temporaryPrefix)
			issuer.ID(label)
			nhash, chosen, err := e.hashNDegreeQuads(label, issuer)
			if err != nil {
				return err
			}
			results = append(results, nDegreeResult{hash: nhash, issuer: chosen})
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].hash < results[j].hash
		})
		for _, result := range results {
			for _, old := range result.issuer.Issued() {
				e.canonical.ID(old)
			}
		}
	}
	return nil
}

// hashFirstDegreeQuads hashes the quads mentioning label with the label itself masked
// as _:a and every other blank node as _:z (_:g in graph position for URGNA2012).
func (e *engine) hashFirstDegreeQuads(label string) (string, error) {
	rec := e.records[label]
	if rec.hash != "" {
		return rec.hash, nil
	}
	err := e.sched.do(func() error {
		lines := make([]string, 0, len(rec.quads))
		var b strings.Builder
		for _, q := range rec.quads {
			b.Reset()
			writeQuad(&b,
				e.maskFirstDegree(label, q.S, false),
				q.P,
				e.maskFirstDegree(label, q.O, false),
				e.maskFirstDegree(label, q.G, true))
			lines = append(lines, b.String())
		}
		sort.Strings(lines)

		h, err := NewHasher(e.hashAlg)
		if err != nil {
			return err
		}
		for _, line := range lines {
			h.Update(line)
		}
		rec.hash = h.Sum()
		return nil
	})
	if err != nil {
		return "", wrapCanonError("hash-first-degree", label, err)
	}
	return rec.hash, nil
}

func (e *engine) maskFirstDegree(label string, t Term, graph bool) Term {
	b, ok := t.(BlankNode)
	if !ok {
		return t
	}
	if graph && e.alg == AlgorithmURGNA2012 {
		return BlankNode{ID: "g"}
	}
	if b.String() == label {
		return BlankNode{ID: "a"}
	}
	return BlankNode{ID: "z"}
}

// hashRelatedBlankNode hashes the relation between a blank node and its neighbor
// related, seen through quad q at position.
func (e *engine) hashRelatedBlankNode(related string, q Quad, issuer *IdentifierIssuer, position string) (string, error) {
	id, ok := e.canonical.Lookup(related)
	if !ok {
		id, ok = issuer.Lookup(related)
	}
	if !ok {
		var err error
		if id, err = e.hashFirstDegreeQuads(related); err != nil {
			return "", err
		}
	}

	h, err := NewHasher(e.hashAlg)
	if err != nil {
		return "", err
	}
	h.Update(position)
	switch {
	case e.alg == AlgorithmURGNA2012:
		h.Update(q.P.Value)
	case position != "g":
		h.Update(renderIRI(q.P))
	}
	h.Update(id)
	return h.Sum(), nil
}

// createHashToRelated groups the neighbors of label by relation hash.
func (e *engine) createHashToRelated(label string, issuer *IdentifierIssuer) (map[string][]string, error) {
	hashToRelated := map[string][]string{}
	add := func(related string, q Quad, position string) error {
		hash, err := e.hashRelatedBlankNode(related, q, issuer, position)
		if err != nil {
			return err
		}
		hashToRelated[hash] = append(hashToRelated[hash], related)
		return nil
	}

	for _, q := range e.records[label].quads {
		if e.alg == AlgorithmURGNA2012 {
			var related, position string
			if b, ok := q.S.(BlankNode); ok && b.String() != label {
				related, position = b.String(), "p"
			} else if b, ok := q.O.(BlankNode); ok && b.String() != label {
				related, position = b.String(), "r"
			} else {
				continue
			}
			if err := add(related, q, position); err != nil {
				return nil, err
			}
			continue
		}

		for _, c := range [...]struct {
			term     Term
			position string
		}{{q.S, "s"}, {q.O, "o"}, {q.G, "g"}} {
			b, ok := c.term.(BlankNode)
			if !ok || b.String() == label {
				continue
			}
			if err := add(b.String(), q, c.position); err != nil {
				return nil, err
			}
		}
	}
	return hashToRelated, nil
}

// hashNDegreeQuads hashes the extended neighborhood of label. issuer holds the
// temporary identifiers of the current exploration and is not modified; the issuer
// returned is the one behind the smallest path.
func (e *engine) hashNDegreeQuads(label string, issuer *IdentifierIssuer) (string, *IdentifierIssuer, error) {
	var hash string
	err := e.sched.do(func() error {
		hashToRelated, err := e.createHashToRelated(label, issuer)
		if err != nil {
			return err
		}
		md, err := NewHasher(e.hashAlg)
		if err != nil {
			return err
		}

		for _, relatedHash := range sortedKeys(hashToRelated) {
			md.Update(relatedHash)

			related := append([]string(nil), hashToRelated[relatedHash]...)
			sort.Strings(related)

			var chosenPath string
			var chosenIssuer *IdentifierIssuer
			permuter := NewPermuter(related)
			for permuter.HasNext() {
				permutation := permuter.Next()
				err := e.sched.do(func() error {
					path, pathIssuer, ok, err := e.tryPermutation(permutation, issuer, chosenPath)
					if err != nil || !ok {
						return err
					}
					if chosenPath == "" || path < chosenPath {
						chosenPath = path
						chosenIssuer = pathIssuer
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			md.Update(chosenPath)
			issuer = chosenIssuer
		}
		hash = md.Sum()
		return nil
	})
	if err != nil {
		return "", nil, wrapCanonError("hash-n-degree", label, err)
	}
	return hash, issuer, nil
}

// tryPermutation builds the path for one ordering of related blank nodes. ok is false
// when the path was abandoned because it can no longer beat chosenPath.
func (e *engine) tryPermutation(permutation []string, issuer *IdentifierIssuer, chosenPath string) (string, *IdentifierIssuer, bool, error) {
	issuerCopy := issuer.Clone()
	var path strings.Builder
	var recursionList []string

	for _, related := range permutation {
		if id, ok := e.canonical.Lookup(related); ok {
			path.WriteString(id)
		} else {
			if !issuerCopy.HasID(related) {
				recursionList = append(recursionList, related)
			}
			path.WriteString(issuerCopy.ID(related))
		}
		if cannotImprove(path.String(), chosenPath) {
			return "", nil, false, nil
		}
	}

	for _, related := range recursionList {
		hash, resultIssuer, err := e.hashNDegreeQuads(related, issuerCopy)
		if err != nil {
			return "", nil, false, err
		}
		path.WriteString(issuerCopy.ID(related))
		path.WriteString("<")
		path.WriteString(hash)
		path.WriteString(">")
		issuerCopy = resultIssuer
		if cannotImprove(path.String(), chosenPath) {
			return "", nil, false, nil
		}
	}
	return path.String(), issuerCopy, true, nil
}

// cannotImprove reports whether a partial path is already at least as long as, and not
// smaller than, the chosen path. Extending it can then never produce a smaller path.
func cannotImprove(path, chosenPath string) bool {
	return chosenPath != "" && len(path) >= len(chosenPath) && path >= chosenPath
}

// rewrite replaces every blank node with its canonical label and returns the quads
// sorted by their canonical lines.
func (e *engine) rewrite() ([]Quad, []string) {
	type line struct {
		text string
		quad Quad
	}
	lines := make([]line, 0, len(e.quads))
	var b strings.Builder
	for _, q := range e.quads {
		out := Quad{
			S: e.canonicalTerm(q.S),
			P: q.P,
			O: normalizeLiteral(e.canonicalTerm(q.O)),
			G: e.canonicalTerm(q.G),
		}
		b.Reset()
		writeQuad(&b, out.S, out.P, out.O, out.G)
		lines = append(lines, line{text: b.String(), quad: out})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].text < lines[j].text })

	quads := make([]Quad, len(lines))
	texts := make([]string, len(lines))
	for i, l := range lines {
		quads[i] = l.quad
		texts[i] = l.text
	}
	return quads, texts
}

func (e *engine) canonicalTerm(t Term) Term {
	b, ok := t.(BlankNode)
	if !ok {
		return t
	}
	return BlankNode{ID: strings.TrimPrefix(e.canonical.ID(b.String()), "_:")}
}

// issuedIDs maps input blank node IDs to canonical IDs, both without "_:".
func (e *engine) issuedIDs() map[string]string {
	out := make(map[string]string, len(e.labels))
	for _, label := range e.labels {
		if id, ok := e.canonical.Lookup(label); ok {
			out[strings.TrimPrefix(label, "_:")] = strings.TrimPrefix(id, "_:")
		}
	}
	return out
}

func normalizeLiteral(t Term) Term {
	l, ok := t.(Literal)
	if !ok {
		return t
	}
	if l.Lang != "" || l.Datatype.Value == XSDString {
		l.Datatype = IRI{}
	}
	return l
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
