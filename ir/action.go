package ir

// StepKind identifies one variant of the step union.
type StepKind string

const (
	StepValidate StepKind = "validate"
	StepInsert   StepKind = "insert"
	StepUpdate   StepKind = "update"
	StepDelete   StepKind = "delete"
	StepNotify   StepKind = "notify"
)

// Action is a unit of side-effecting business logic attached to an entity.
// Steps are data, never executable; a generator lowers them into
// dialect-specific statements.
type Action struct {
	Name    string
	Entity  string
	Steps   []Step
	Impacts []string
}

// Step is one step of an Action. Exactly the fields relevant to Kind are
// populated: Expression for validate, Entity+Fields for insert/update,
// Entity for delete, Target+Message for notify.
type Step struct {
	Kind       StepKind
	Expression string
	Entity     string
	Fields     []Assignment
	Target     string
	Message    string
}

// Assignment is one ordered field=value pair in an insert or update step.
// Order is preserved so generated statements are deterministic.
type Assignment struct {
	Name  string
	Value string
}

func (a Action) clone() Action {
	out := Action{Name: a.Name, Entity: a.Entity}
	if a.Steps != nil {
		out.Steps = make([]Step, len(a.Steps))
		copy(out.Steps, a.Steps)
		for i, s := range out.Steps {
			if s.Fields != nil {
				out.Steps[i].Fields = append([]Assignment(nil), s.Fields...)
			}
		}
	}
	if a.Impacts != nil {
		out.Impacts = append([]string(nil), a.Impacts...)
	}
	return out
}

// ValidateStep builds a validate step from a boolean expression.
func ValidateStep(expression string) Step {
	return Step{Kind: StepValidate, Expression: expression}
}

// InsertStep builds an insert step against the named entity.
func InsertStep(entity string, fields ...Assignment) Step {
	return Step{Kind: StepInsert, Entity: entity, Fields: fields}
}

// UpdateStep builds an update step against the named entity.
func UpdateStep(entity string, fields ...Assignment) Step {
	return Step{Kind: StepUpdate, Entity: entity, Fields: fields}
}

// DeleteStep builds a delete step against the named entity.
func DeleteStep(entity string) Step {
	return Step{Kind: StepDelete, Entity: entity}
}

// NotifyStep builds a notify step for the given target channel.
func NotifyStep(target, message string) Step {
	return Step{Kind: StepNotify, Target: target, Message: message}
}
