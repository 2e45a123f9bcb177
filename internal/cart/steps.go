package cart

// Step is one screen of the cashier flow
type Step string

const (
	StepCreateBill    Step = "create-bill"
	StepCustomerInfo  Step = "customer-info"
	StepMenuSelection Step = "menu-selection"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
	StepDailyReport   Step = "daily-report"
)

// transitions are user-driven; there are no automatic timeouts
var transitions = map[Step][]Step{
	StepCreateBill:    {StepCustomerInfo, StepDailyReport},
	StepCustomerInfo:  {StepMenuSelection, StepCreateBill},
	StepMenuSelection: {StepMenuSelection, StepPayment, StepCustomerInfo},
	StepPayment:       {StepConfirmation, StepMenuSelection},
	StepConfirmation:  {StepCreateBill},
	StepDailyReport:   {StepCreateBill},
}

// CanTransition reports whether moving from one step to another is allowed
func CanTransition(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
