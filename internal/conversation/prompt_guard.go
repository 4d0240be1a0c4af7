package conversation

import (
	"regexp"
	"strings"
)

// PromptGuardResult is the verdict on an inbound message before it reaches
// the generator.
type PromptGuardResult struct {
	Blocked   bool
	Score     float64
	Reasons   []string
	Sanitized string
}

type promptGuardPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

const (
	blockThreshold = 0.7
	warnThreshold  = 0.3
)

// BlockedReplyText answers messages the guard refuses to forward.
const BlockedReplyText = "Estoy aquí para ayudarte con reservaciones y preguntas sobre nuestros servicios de lavado y detailing. ¿En qué puedo ayudarte?"

var promptGuardPatterns = []promptGuardPattern{
	{regexp.MustCompile(`(?i)ignor[ae]\s+(todas\s+)?(las\s+)?(instrucciones|reglas)\s+(anteriores|previas)`), "direct_injection:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|rules?|prompts?)`), "direct_injection:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)olvida\s+(todas\s+)?(tus|las)\s+(instrucciones|reglas)`), "direct_injection:forget_instructions", 0.9},
	{regexp.MustCompile(`(?i)(ahora\s+eres|you\s+are\s+now)\s+(un|una|a|an|my|mi)\s+`), "direct_injection:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)(nuevo\s+rol|new\s+role|system\s*prompt)\s*:`), "direct_injection:new_role", 0.9},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|modo\s+desarrollador|developer\s*mode`), "direct_injection:jailbreak_keyword", 0.9},
	{regexp.MustCompile(`(?i)(muestra|revela|repite|dime|show|reveal|repeat)\s+(me\s+)?(tu|tus|your)\s+(prompt|instrucciones|instructions?|mensaje\s+de\s+sistema|system\s+message)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)(reservaciones|reservas|c[oó]digos|tel[eé]fonos)\s+de\s+(otros|otras|todos)\s+(clientes|usuarios)`), "exfiltration:customer_data", 0.7},
	{regexp.MustCompile(`(?i)\b(api|secret|aws|database|db|redis)\s*(key|token|secret|password)s?\b`), "exfiltration:credentials_keyword", 0.8},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>|</?think>`), "context_manipulation:special_tokens", 0.9},
	{regexp.MustCompile(`(?i)###\s*(system|sistema|assistant|asistente|user|usuario)\s*:`), "context_manipulation:role_markers", 0.5},
	{regexp.MustCompile(`<\s*(script|img|iframe|svg)\b`), "obfuscation:html_injection", 0.4},
}

var (
	roleMarkerPattern = regexp.MustCompile(`(?i)###\s*(system|sistema|assistant|asistente|user|usuario)\s*:`)
	htmlTagPattern    = regexp.MustCompile(`<\s*(script|img|iframe|svg)\b[^>]*>`)
)

// ScanForPromptInjection scores inbound text. The score is the strongest
// signal plus 0.1 for each additional one, capped at 1.
func ScanForPromptInjection(message string) PromptGuardResult {
	if strings.TrimSpace(message) == "" {
		return PromptGuardResult{Sanitized: message}
	}

	var reasons []string
	maxWeight := 0.0
	for _, p := range promptGuardPatterns {
		if p.re.MatchString(message) {
			reasons = append(reasons, p.reason)
			if p.weight > maxWeight {
				maxWeight = p.weight
			}
		}
	}

	score := maxWeight
	if len(reasons) > 1 {
		score = maxWeight + float64(len(reasons)-1)*0.1
		if score > 1.0 {
			score = 1.0
		}
	}

	result := PromptGuardResult{Score: score, Reasons: reasons, Sanitized: message}
	switch {
	case score >= blockThreshold:
		result.Blocked = true
	case score >= warnThreshold:
		result.Sanitized = SanitizeForLLM(message)
	}
	return result
}

// UserTurn returns the history entry for an inbound message: the sanitized
// text, or false when the guard blocks the message and nothing may be kept.
func UserTurn(text string) (Turn, bool) {
	guard := ScanForPromptInjection(strings.TrimSpace(text))
	if guard.Blocked {
		return Turn{}, false
	}
	return Turn{Role: ChatRoleUser, Text: guard.Sanitized}, true
}

// SanitizeForLLM strips role markers and HTML tags, keeping the rest.
func SanitizeForLLM(message string) string {
	cleaned := roleMarkerPattern.ReplaceAllString(message, "")
	cleaned = htmlTagPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
