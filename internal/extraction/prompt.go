package extraction

import "strings"

const systemPrompt = "You are an expert at extracting order information from customer emails."

const extractionTemplate = `Extract the following information from the email:
- Customer name (full name)
- Delivery address (complete address)
- Delivery date (in YYYY-MM-DD format)
- List of items with SKU and quantity

Be precise and accurate in your extraction. If any information is missing or unclear, use reasonable defaults or mark as unknown.

{format_instructions}

Email text:
{email_text}`

const formatInstructions = `Reply with a single JSON object and nothing else, using exactly these keys:
{
  "customer_name": "Full name of the customer",
  "delivery_address": "Complete delivery address",
  "delivery_date": "Requested delivery date in YYYY-MM-DD format",
  "items": [{"sku": "product SKU", "quantity": 1}]
}
Quantities are positive integers.`

// BuildPrompt renders the extraction prompt for one email.
func BuildPrompt(emailText string) string {
	return strings.NewReplacer(
		"{format_instructions}", formatInstructions,
		"{email_text}", emailText,
	).Replace(extractionTemplate)
}
