package core

import "clonetrack/pkg/domain"

type (
	EntityType         = domain.EntityType
	Stage              = domain.Stage
	Outcome            = domain.Outcome
	Location           = domain.Location
	Clone              = domain.Clone
	Construct          = domain.Construct
	Project            = domain.Project
	ProjectKind        = domain.ProjectKind
	Properties         = domain.Properties
	Value              = domain.Value
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityProject   = domain.EntityProject
	EntityConstruct = domain.EntityConstruct
	EntityClone     = domain.EntityClone
)

const (
	StageConstruct      = domain.StageConstruct
	StageTransformation = domain.StageTransformation
	StagePCR            = domain.StagePCR
	StageSequencing     = domain.StageSequencing
	StageConjugation    = domain.StageConjugation
	StageGrowth         = domain.StageGrowth
	StageStorage        = domain.StageStorage
)

const (
	OutcomePending = domain.OutcomePending
	OutcomeSuccess = domain.OutcomeSuccess
	OutcomeFail    = domain.OutcomeFail
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
