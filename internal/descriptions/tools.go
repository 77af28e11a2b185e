package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	ExtractFileDescription = `Extract a structured record from an identity card image or PDF.

**When to use:** You have a scanned card (PNG, JPEG, TIFF, BMP, GIF, WEBP) or an e-card PDF and need its fields as data.

**Why it's useful:** Images are read with OCR in English plus the configured regional script, PDFs through their embedded text, and the text is parsed into twelve named fields: id_number, virtual_id, name_native_script, name, guardian_name, date_of_birth, gender, address, district, state, pincode, phone.

**Examples:**
• Read a scanned card: "Extract the details from cards/front.jpg"
• Unlock an e-card: "Extract from ecard.pdf with password RAJE1990"

**Common workflows:**
1. Intake: idcard_search_directory → idcard_validate_file → idcard_extract_file
2. KYC check: idcard_extract_file → compare with application form

**Best practices:** Fields that could not be found are empty strings, not errors. A locked PDF either fails or returns an empty record with locked=true, depending on server configuration.`

	ParseTextDescription = `Parse raw card text into the same structured record as idcard_extract_file.

**When to use:** OCR was already done elsewhere, or you want to test how a piece of text is interpreted.

**Why it's useful:** Runs the field extraction rules without touching files or the OCR engine; deterministic and fast.

**Examples:**
• "Parse this text: Rajesh Kumar\nDOB: 15/08/1990\nMALE\n1234 5678 9012"

**Best practices:** Keep the original line breaks; several rules rely on them.`

	VerifyFileDescription = `Check claimed values against what is printed on an identity card.

**When to use:** You have a name, id number or date of birth from a form and want to confirm the card agrees.

**Why it's useful:** Names are compared with Jaro-Winkler similarity (match at 0.85 or above) against both the Latin and the regional script name; id number and date of birth must match exactly after normalizing spacing, separators and leading zeros.

**Examples:**
• "Verify cards/front.png has name Rajesh Kumar and date_of_birth 15-08-1990"

**Best practices:** Supply at least one claim. The response lists every check with its score so a reviewer can see near misses.`

	ValidateFileDescription = `Check that a file is a readable identity document before extracting.

**When to use:** Before extraction in automated pipelines or when handling uploads of unknown quality.

**Why it's useful:** Confirms the extension is supported, the size is within limits and the content decodes; reports image format, PDF page count and whether the PDF is encrypted.

**Best practices:** Pass the password for protected PDFs to confirm it unlocks the file.`

	SearchDirectoryDescription = `Find identity document files in the document directory.

**When to use:** You need to know which card images and PDFs are available.

**Why it's useful:** Lists supported files with size and modification time; the optional query matches file names by substring or fuzzy word similarity.

**Examples:**
• "Find files matching rajesh"
• "List all documents in uploads/"

**Best practices:** Directories are resolved inside the server's document directory; relative paths are allowed.`

	ServerInfoDescription = `Describe the server: version, OCR engine, regional script, limits, tools and the documents currently available.

**When to use:** At the start of a session to discover capabilities.

**Best practices:** Check ocr_engine and script to know which languages images are read in.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"idcard_extract_file":     ExtractFileDescription,
	"idcard_parse_text":       ParseTextDescription,
	"idcard_verify_file":      VerifyFileDescription,
	"idcard_validate_file":    ValidateFileDescription,
	"idcard_search_directory": SearchDirectoryDescription,
	"idcard_server_info":      ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
