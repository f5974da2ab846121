package domain

import "fmt"

// TemplateAlreadyExistsError reports a write-once destination that is
// already present. Callers must remove it before regenerating.
type TemplateAlreadyExistsError struct {
	Name string
}

func (e TemplateAlreadyExistsError) Error() string {
	return fmt.Sprintf("template %q already exists; remove it before regenerating", e.Name)
}

// NoEligibleItemsError reports that nothing qualifies for a stage template.
type NoEligibleItemsError struct {
	Stage   Stage
	Project string
}

func (e NoEligibleItemsError) Error() string {
	return fmt.Sprintf("no eligible items for %s template in project %q", e.Stage, e.Project)
}

// UnknownCloneError reports an ingested row referencing a clone that does not exist.
type UnknownCloneError struct {
	ID      string
	Project string
}

func (e UnknownCloneError) Error() string {
	return fmt.Sprintf("clone %q not found in project %q", e.ID, e.Project)
}

// UnknownConstructError reports an ingested row referencing a construct that does not exist.
type UnknownConstructError struct {
	ID      string
	Project string
}

func (e UnknownConstructError) Error() string {
	return fmt.Sprintf("construct %q not found in project %q", e.ID, e.Project)
}

// InsufficientSampleError reports a sample size larger than a construct's passing clones.
type InsufficientSampleError struct {
	Construct string
	Requested int
	Available int
}

func (e InsufficientSampleError) Error() string {
	return fmt.Sprintf("construct %q: cannot sample %d clones, only %d pass", e.Construct, e.Requested, e.Available)
}

// InvalidRowError reports a malformed inbound row (missing column, bad number).
type InvalidRowError struct {
	Row    int
	Column string
	Reason string
}

func (e InvalidRowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Reason)
}

// DuplicateIdentifierError reports an identifier collision that cannot be skipped.
type DuplicateIdentifierError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.ID)
}

// NotFoundError reports a missing project.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}

// ProjectKindError reports an operation applied to the wrong project variant.
type ProjectKindError struct {
	Project string
	Want    ProjectKind
	Got     ProjectKind
}

func (e ProjectKindError) Error() string {
	return fmt.Sprintf("project %q is a %s project, expected %s", e.Project, e.Got, e.Want)
}

// DependentProjectError reports a delete refused because another project
// still derives from the target.
type DependentProjectError struct {
	Project   string
	Dependent string
}

func (e DependentProjectError) Error() string {
	return fmt.Sprintf("project %q is the parent of %q; delete %q first", e.Project, e.Dependent, e.Dependent)
}
