package analyzer

import (
	"errors"
	"fmt"
)

// Kind selects which analysis prompt is sent with the award data.
type Kind string

const (
	KindDEI      Kind = "dei"
	KindWaste    Kind = "waste"
	KindNGOFraud Kind = "ngo_fraud"
)

var ErrUnknownKind = errors.New("unknown analysis kind")

// SystemMessage frames every analysis request.
const SystemMessage = "You are an expert analyst reviewing US federal award data for waste, redundancy and questionable spending."

const deiPrompt = `Analyze the attached CSV of government awards and identify live DEI-related contracts.

A contract qualifies when its description contains DEI keywords such as "diversity", "equity", "inclusion", "DEI", "DEIA", "gender", "LGBT", "LGBTQ" and the award is still live (period of performance end date in the future).

For each qualifying award:
- Use the award id, current total value, description and recipient name columns.
- Only include awards with a high probability of being part of a DEI initiative; when undecided, leave the award out.
- Summarize the description as short as possible while keeping the matched keywords from the original text.

Rules:
- Case-insensitive keyword matching.
- Skip terminated or expired awards.
- Skip awards that are clearly mission-critical despite a keyword match.
- Output a JSON object with a list called "doge_targets", each entry holding only "id", "amount", "description" and "recipient".

Example output:
{
    "doge_targets": [
        {"id": "75P00123P00067", "amount": 500000, "description": "Diversity training", "recipient": "Me, LLC"}
    ]
}`

const wastePrompt = `Analyze the attached CSV of government awards and identify live contracts indicating potential waste.

Look for large amounts with vague descriptions ("support services", "consulting", "training", "management" without specifics) or non-essential spending, where the award is still live (period of performance end date in the future).

For each qualifying award:
- Use the award id, current total value, description and recipient name columns.
- Only include awards with a high probability of waste based on vague descriptions or vague outcomes; when undecided, leave the award out.
- Summarize the description as short as possible while keeping the notable terms from the original text.

Rules:
- Case-insensitive keyword matching.
- Skip terminated or expired awards.
- Prioritize vague terms unless the award is clearly mission-critical (e.g. "aircraft maintenance" is fine, "training" alone is not).
- Output a JSON object with a list called "doge_targets", each entry holding only "id", "amount", "description" and "recipient".

Example output:
{
    "doge_targets": [
        {"id": "75P00123P00067", "amount": 500000, "description": "Training", "recipient": "Me, LLC"}
    ]
}`

const ngoFraudPrompt = `Analyze the attached CSV of government grants and identify live awards to organizations that warrant closer review.

Look for:
1. Live grants with large amounts and vague descriptions or outcomes.
2. Grants funding organizations or projects that are not mission-critical, in particular grants awarded to entities outside the United States.

For each qualifying award:
- Use the award id, obligated amount, description and recipient name columns.
- Only include awards with a high probability of concern; when undecided, leave the award out.
- Summarize the description as short as possible while keeping the notable terms from the original text.
- Add a "recipient_info" field with basic information about the recipient (organization type, country of origin, track record).

Rules:
- Case-insensitive keyword matching.
- Skip terminated or expired awards.
- Output a JSON object with a list called "doge_targets", each entry holding "id", "amount", "description", "recipient" and "recipient_info".

Example output:
{
    "doge_targets": [
        {"id": "75P00123P00067", "amount": 500000, "description": "Research", "recipient": "Me, LLC", "recipient_info": "NGO with no prior federal awards"}
    ]
}`

// PromptFor returns the analysis instruction for the given kind.
func PromptFor(kind Kind) (string, error) {
	switch kind {
	case KindDEI:
		return deiPrompt, nil
	case KindWaste:
		return wastePrompt, nil
	case KindNGOFraud:
		return ngoFraudPrompt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
