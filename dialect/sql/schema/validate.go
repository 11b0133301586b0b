package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/reposql/coerce"
	entity "github.com/syssam/reposql/schema"
)

// ValidationError describes one mismatch between a descriptor and its
// live table.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of descriptor validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Merge appends the findings of o.
func (r *ValidationResult) Merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures descriptor validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowMissingColumns bool
	skipTypes           bool
}

// AllowMissingColumns reports descriptor columns absent from the table as
// warnings instead of errors.
func AllowMissingColumns() ValidateOption {
	return func(c *validateConfig) {
		c.allowMissingColumns = true
	}
}

// SkipTypes disables the type family comparison.
func SkipTypes() ValidateOption {
	return func(c *validateConfig) {
		c.skipTypes = true
	}
}

// Validate compares desc with the live columns of its table.
//
// Errors: a descriptor column missing from the table, an enum column stored
// in a non-integer column. Warnings: a NOT NULL column without default the
// descriptor never writes, a primary-key mismatch, and incompatible type
// families.
func Validate(desc *entity.Descriptor, columns []*ColumnInfo, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	live := make(map[string]*ColumnInfo, len(columns))
	for _, c := range columns {
		live[strings.ToLower(c.Name)] = c
	}
	issue := func(col, format string, args ...any) *ValidationError {
		return &ValidationError{Table: desc.Table, Column: col, Message: fmt.Sprintf(format, args...)}
	}

	for _, c := range desc.Columns {
		lc, ok := live[strings.ToLower(c.Name)]
		if !ok {
			err := issue(c.Name, "column does not exist")
			if cfg.allowMissingColumns {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
			continue
		}
		if c.IsEnum() && !lc.SQLType.IsInteger() {
			result.Errors = append(result.Errors, issue(c.Name, "enum column is stored as %s, not an integer type", lc.Type))
		}
		if c.PrimaryKey != lc.PrimaryKey {
			result.Warnings = append(result.Warnings, issue(c.Name, "primary key is %t in the descriptor and %t in the table", c.PrimaryKey, lc.PrimaryKey))
		}
		if !cfg.skipTypes && c.Type != coerce.TypeOther && lc.SQLType != coerce.TypeOther && family(c.Type) != family(lc.SQLType) {
			result.Warnings = append(result.Warnings, issue(c.Name, "declared %s but the table stores %s", c.Type, lc.Type))
		}
	}

	for _, lc := range columns {
		c, ok := desc.Column(lc.Name)
		written := ok && !c.Ignored
		if !written && !lc.Nullable && lc.Default == nil && !lc.PrimaryKey {
			result.Warnings = append(result.Warnings, issue(lc.Name, "NOT NULL column without default is never written; inserts will fail"))
		}
	}
	return result
}

// ValidateAll inspects the table of every descriptor and validates it. A
// missing table is reported as an error of that table.
func ValidateAll(ctx context.Context, i *Inspector, descs []*entity.Descriptor, opts ...ValidateOption) *ValidationResult {
	result := &ValidationResult{}
	for _, d := range descs {
		cols, err := i.Columns(ctx, d.Table)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{Table: d.Table, Message: err.Error()})
			continue
		}
		result.Merge(Validate(d, cols, opts...))
	}
	return result
}

type typeFamily int

const (
	familyOther typeFamily = iota
	familyBool
	familyNumber
	familyText
	familyTime
	familyBinary
)

// family groups type codes whose values convert into each other.
func family(t coerce.SQLType) typeFamily {
	switch {
	case t == coerce.TypeBoolean || t == coerce.TypeBit:
		return familyBool
	case t.IsInteger() || t.IsFloating() || t.IsDecimal():
		return familyNumber
	case t.IsCharacter():
		return familyText
	case t == coerce.TypeDate || t == coerce.TypeTime || t == coerce.TypeTimestamp:
		return familyTime
	case t == coerce.TypeBinary || t == coerce.TypeVarBinary || t == coerce.TypeBlob:
		return familyBinary
	default:
		return familyOther
	}
}
