package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/schema"
)

// Validator re-derives the legality of a candidate query from its text
// and the schema descriptor alone. It shares no state with the
// synthesizer, so a hallucinated generation cannot validate itself.
type Validator struct {
	schema *schema.Descriptor
}

// NewValidator creates a query validator
func NewValidator(desc *schema.Descriptor) *Validator {
	return &Validator{schema: desc}
}

var writeVerbPattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE)\b`)

// Constructs outside the allowed grammar subset, regardless of intent
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bDROP\b`),
	regexp.MustCompile(`(?i)\bTRUNCATE\b`),
	regexp.MustCompile(`(?i)\bALTER\b`),
	regexp.MustCompile(`(?i)\bCREATE\b`),
	regexp.MustCompile(`(?i)\bGRANT\b`),
	regexp.MustCompile(`(?i)\bREVOKE\b`),
	regexp.MustCompile(`(?i)\bEXEC\b`),
	regexp.MustCompile(`(?i)\bEXECUTE\b`),
	regexp.MustCompile(`(?i)\bCOPY\b`),
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\b`),
	regexp.MustCompile(`(?i)pg_read_file`),
	regexp.MustCompile(`(?i)pg_write_file`),
	regexp.MustCompile(`(?i)pg_ls_dir`),
	regexp.MustCompile(`(?i)lo_import`),
	regexp.MustCompile(`(?i)lo_export`),
	regexp.MustCompile(`(?i)dblink`),
}

var (
	tableRefPattern     = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	insertColsPattern   = regexp.MustCompile(`(?i)INSERT\s+INTO\s+[a-zA-Z_][a-zA-Z0-9_]*\s*\(([^)]*)\)`)
	updateSetPattern    = regexp.MustCompile(`(?i)\bSET\s+(.+?)(?:\s+WHERE\b|$)`)
	qualifiedRefPattern = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)`)
	identPattern        = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Validate checks a candidate against the schema descriptor and the
// write policy. ACCEPT is the only outcome that may reach the executor.
func (v *Validator) Validate(candidate *domain.CandidateQuery) domain.ValidationResult {
	sql := strings.TrimSpace(candidate.SQL)
	if sql == "" {
		return domain.Reject(domain.RejectUnsafeConstruct, "empty query")
	}

	upper := strings.ToUpper(sql)

	// Hard prefix rule: a READ candidate that does not begin with SELECT
	// is rejected before any other check can soften the verdict
	if candidate.Intent == domain.IntentRead && !strings.HasPrefix(upper, "SELECT") {
		return domain.Reject(domain.RejectReadNotSelect, "read query must begin with SELECT")
	}

	if r := v.checkConstructs(sql); !r.Accepted {
		return r
	}
	if r := v.checkIntent(candidate, sql, upper); !r.Accepted {
		return r
	}
	return v.checkSchema(candidate, sql)
}

func (v *Validator) checkConstructs(sql string) domain.ValidationResult {
	// One trailing semicolon is tolerated; any other means a batch
	trimmed := strings.TrimSuffix(sql, ";")
	if strings.Contains(trimmed, ";") {
		return domain.Reject(domain.RejectUnsafeConstruct, "multiple statements not allowed")
	}

	if strings.Contains(sql, "--") || strings.Contains(sql, "/*") {
		return domain.Reject(domain.RejectUnsafeConstruct, "comments not allowed")
	}

	for _, pattern := range blockedPatterns {
		if pattern.MatchString(sql) {
			return domain.Reject(domain.RejectUnsafeConstruct, fmt.Sprintf("blocked construct: %s", pattern.String()))
		}
	}
	return domain.Accept()
}

func (v *Validator) checkIntent(candidate *domain.CandidateQuery, sql, upper string) domain.ValidationResult {
	switch candidate.Intent {
	case domain.IntentRead:
		if writeVerbPattern.MatchString(sql) {
			return domain.Reject(domain.RejectIntentMismatch, "read query contains a mutating verb")
		}
	case domain.IntentWrite:
		if !strings.HasPrefix(upper, "INSERT") &&
			!strings.HasPrefix(upper, "UPDATE") &&
			!strings.HasPrefix(upper, "DELETE") {
			return domain.Reject(domain.RejectIntentMismatch, "write query must begin with INSERT, UPDATE or DELETE")
		}
	default:
		return domain.Reject(domain.RejectIntentMismatch, fmt.Sprintf("unknown intent tag %q", candidate.Intent))
	}
	return domain.Accept()
}

func (v *Validator) checkSchema(candidate *domain.CandidateQuery, sql string) domain.ValidationResult {
	tables := referencedTables(sql)
	if len(tables) == 0 {
		return domain.Reject(domain.RejectSchemaViolation, "no table reference found")
	}

	for _, table := range tables {
		if !v.schema.HasTable(table) {
			return domain.Reject(domain.RejectSchemaViolation, fmt.Sprintf("unknown table %q", table))
		}
	}

	if candidate.Intent == domain.IntentWrite {
		target := tables[0]
		t, _ := v.schema.Table(target)
		if !t.Mutable {
			return domain.Reject(domain.RejectSchemaViolation, fmt.Sprintf("table %q is not writable", target))
		}
	}

	// Column lists on INSERT and UPDATE are explicit in the text, so
	// they can be checked without a full SQL parser
	if m := insertColsPattern.FindStringSubmatch(sql); m != nil {
		for _, col := range splitIdentList(m[1]) {
			if !v.schema.HasColumn(tables[0], col) {
				return domain.Reject(domain.RejectSchemaViolation, fmt.Sprintf("unknown column %q in table %q", col, tables[0]))
			}
		}
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "UPDATE") {
		if m := updateSetPattern.FindStringSubmatch(sql); m != nil {
			for _, assignment := range strings.Split(m[1], ",") {
				parts := strings.SplitN(assignment, "=", 2)
				col := strings.TrimSpace(parts[0])
				if !identPattern.MatchString(col) {
					continue
				}
				if !v.schema.HasColumn(tables[0], col) {
					return domain.Reject(domain.RejectSchemaViolation, fmt.Sprintf("unknown column %q in table %q", col, tables[0]))
				}
			}
		}
	}

	// Qualified references are checked only when the qualifier names a
	// declared table; aliases are left to the store to resolve
	for _, m := range qualifiedRefPattern.FindAllStringSubmatch(sql, -1) {
		table, column := m[1], m[2]
		if v.schema.HasTable(table) && !v.schema.HasColumn(table, column) {
			return domain.Reject(domain.RejectSchemaViolation, fmt.Sprintf("unknown column %q in table %q", column, table))
		}
	}

	return domain.Accept()
}

func referencedTables(sql string) []string {
	seen := make(map[string]bool)
	var tables []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if name == "select" {
			// "FROM (SELECT ..." style subquery
			continue
		}
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	return tables
}

func splitIdentList(list string) []string {
	var idents []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			idents = append(idents, part)
		}
	}
	return idents
}
