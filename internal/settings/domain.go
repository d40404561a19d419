package settings

// Keys consumed by the quantification core. Each key has a global value
// that a period-scoped override may shadow.
const (
	KeyQuantifiersPerReceiver = "PRAISE_QUANTIFIERS_PER_PRAISE_RECEIVER"
	KeyAssignEvenly           = "PRAISE_QUANTIFIERS_ASSIGN_EVENLY"
	KeyDuplicatePercentage    = "PRAISE_QUANTIFY_DUPLICATE_PRAISE_PERCENTAGE"
)

// defaults apply when neither a period override nor a global value exists.
var defaults = map[string]string{
	KeyQuantifiersPerReceiver: "3",
	KeyAssignEvenly:           "false",
	KeyDuplicatePercentage:    "0.1",
}
