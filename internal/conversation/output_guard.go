package conversation

import (
	"regexp"
	"strings"
)

// OutputGuardResult is the verdict on an outbound generated reply.
type OutputGuardResult struct {
	Leaked    bool
	Reasons   []string
	Sanitized string // empty when the reply must be replaced entirely
}

type outputLeakPattern struct {
	re     *regexp.Regexp
	reason string
	block  bool
}

var outputLeakPatterns = []outputLeakPattern{
	{regexp.MustCompile(`(?i)(mi|my) (prompt|system prompt|mensaje de sistema)\s+(es|dice|is|says)`), "leak:system_prompt_disclosure", true},
	{regexp.MustCompile(`(?i)(mis instrucciones|my instructions?)\s+(son|dicen|are|say)`), "leak:instructions_disclosure", true},
	{regexp.MustCompile(`(?i)(estoy|fui) (programad[oa]|configurad[oa]|instruid[oa]) para`), "leak:programming_disclosure", true},
	{regexp.MustCompile(`(?i)(soy|i am|i'm) (un|una|a|an) (modelo de lenguaje|language model|LLM|inteligencia artificial|IA|AI)\b`), "leak:ai_identity", false},
	{regexp.MustCompile(`(?i)(basad[oa] en|powered by|funciono con|uso)\s+(DeepSeek|Ollama|Gemini|GPT|OpenAI|Bedrock|Claude|Llama)`), "leak:tech_stack", true},
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential", true},
	{regexp.MustCompile(`(?i)AKIA[A-Z0-9]{16}`), "leak:aws_key", true},
	{regexp.MustCompile(`(?i)(postgres|redis|nats|mongodb)://\S+`), "leak:connection_url", true},
	{regexp.MustCompile(`(?i)localhost:\d{2,5}|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d{2,5}`), "leak:host_port", true},
	{regexp.MustCompile(`(?i)/admin/|/webhooks/|/debug/`), "leak:internal_path", true},
}

var aiIdentitySentence = regexp.MustCompile(`(?i)[^.!?¡¿]*\b(soy|i am|i'm) (un|una|a|an) (modelo de lenguaje|language model|LLM|inteligencia artificial|IA|AI)\b[^.!?]*[.!?]?\s*`)

// ScanOutputForLeaks checks a generated reply for prompt, identity or
// infrastructure disclosures.
func ScanOutputForLeaks(reply string) OutputGuardResult {
	if strings.TrimSpace(reply) == "" {
		return OutputGuardResult{Sanitized: reply}
	}

	var reasons []string
	block := false
	for _, p := range outputLeakPatterns {
		if p.re.MatchString(reply) {
			reasons = append(reasons, p.reason)
			block = block || p.block
		}
	}
	if len(reasons) == 0 {
		return OutputGuardResult{Sanitized: reply}
	}

	result := OutputGuardResult{Leaked: true, Reasons: reasons}
	if !block {
		result.Sanitized = strings.TrimSpace(aiIdentitySentence.ReplaceAllString(reply, ""))
	}
	return result
}
