package questionnaire

// User-facing copy for each step.
const (
	TextGreeting       = "Hi! Press the button and let's find your next pair of basketball shoes."
	TextAskMetrics     = "Enter your height and weight as height/weight [cm/kg], e.g. 180/75."
	TextMetricsInvalid = "Error: enter your data as height/weight (for example 180/75). Use only numbers and the '/' symbol."
	TextAskEnvironment = "Where are you going to play?"
	TextAskPosition    = "Which position do you play?"
	TextAskBudget      = "Now choose your budget:"
	TextSearching      = "Searching for a matching pair..."
	TextCancelled      = "The selection was cancelled."
	TextNoSession      = "There is no selection in progress. Send start to begin."
	TextInvalidChoice  = "Please pick one of the buttons below."
	TextHelp           = "How to use this bot:\n" +
		"start - begin a sneaker selection.\n" +
		"stop - cancel the current selection.\n" +
		"help - show this message.\n" +
		"\n" +
		"Send start and follow the prompts: you will enter your height and weight, " +
		"then pick where you play, your position and your budget."
)

var (
	StartChoices = []Choice{{Label: "Start selection!", Value: ChoiceStartSelection}}

	EnvironmentChoices = []Choice{
		{Label: "Indoor", Value: string(Indoor)},
		{Label: "Outdoor", Value: string(Outdoor)},
		{Label: "Indoor and outdoor", Value: string(Both)},
	}

	PositionChoices = []Choice{
		{Label: "1-2-3", Value: string(Backcourt)},
		{Label: "4-5", Value: string(Frontcourt)},
	}

	BudgetChoices = []Choice{
		{Label: "Low", Value: string(BudgetLow)},
		{Label: "Mid", Value: string(BudgetMid)},
		{Label: "High", Value: string(BudgetHigh)},
	}
)

// PromptFor returns the prompt that asks for the input the state expects.
func PromptFor(state State) (Reply, bool) {
	switch state {
	case AwaitStart:
		return Reply{Text: TextGreeting, Choices: StartChoices}, true
	case AwaitMetrics:
		return Reply{Text: TextAskMetrics}, true
	case AwaitEnvironment:
		return Reply{Text: TextAskEnvironment, Choices: EnvironmentChoices}, true
	case AwaitPosition:
		return Reply{Text: TextAskPosition, Choices: PositionChoices}, true
	case AwaitBudget:
		return Reply{Text: TextAskBudget, Choices: BudgetChoices}, true
	default:
		return Reply{}, false
	}
}
