package agent

import "strings"

// Persona defines an agent's identity: its name, its default system
// prompt, and a relevance scorer over incoming queries.
type Persona struct {
	Name        string
	DisplayName string
	Expertise   string
	Prompt      string
	Score       func(query string) float64
}

var codeKeywords = []string{
	"code", "write", "create", "build", "implement", "function", "class",
	"script", "program", "app", "api", "server", "component", "module",
	"generate", "scaffold", "boilerplate", "template", "html", "css", "js",
	"python", "javascript", "typescript", "java", "rust", "go", "c++",
	"react", "vue", "angular", "django", "flask", "fastapi", "express",
	"database", "sql", "query", "schema", "migration", "docker", "yaml",
	"config", "setup", "install", "package", "library", "framework",
	"frontend", "backend", "fullstack", "website", "webpage", "landing",
}

var codePhrases = []string{"write code", "create a", "build a", "implement", "generate"}

var codeLanguages = []string{"python", "javascript", "typescript", "java", "html", "react"}

var debugKeywords = []string{
	"debug", "error", "bug", "fix", "broken", "crash", "fail", "issue",
	"exception", "traceback", "stack trace", "not working", "wrong",
	"unexpected", "problem", "troubleshoot", "diagnose", "resolve",
	"undefined", "null", "nan", "segfault", "timeout", "memory leak",
	"import error", "syntax error", "type error", "runtime", "compile",
	"500", "404", "403", "connection refused", "cors", "permission denied",
}

var debugPhrases = []string{"not working", "getting error", "help me fix", "why is"}

var reviewKeywords = []string{
	"review", "analyze", "quality", "improve", "optimize", "refactor",
	"best practice", "clean code", "solid", "pattern", "anti-pattern",
	"performance", "efficiency", "readability", "maintainability",
	"code smell", "technical debt", "complexity", "coverage", "lint",
	"style", "convention", "standard", "benchmark", "profile",
	"look at this code", "check this", "what do you think",
}

var reviewPhrases = []string{"review this", "check this code", "improve this"}

var securityKeywords = []string{
	"security", "vulnerability", "exploit", "attack", "inject", "xss",
	"csrf", "sqli", "auth", "authentication", "authorization", "permission",
	"encryption", "hash", "password", "token", "jwt", "oauth", "cors",
	"firewall", "ssl", "tls", "certificate", "pentest", "penetration",
	"compliance", "gdpr", "hipaa", "soc2", "pci", "owasp", "cve",
	"malware", "phishing", "ransomware", "dos", "ddos", "brute force",
	"privilege escalation", "data breach", "leak", "exposure", "hardening",
	"sandbox", "isolation", "audit", "scan", "secure", "unsafe",
}

var securityPhrases = []string{"is this secure", "security audit", "vulnerability"}

func keywordScore(query string, keywords []string, perHit float64) float64 {
	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			score += perHit
		}
	}
	return score
}

func anyPhrase(query string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(query, p) {
			return true
		}
	}
	return false
}

func clampScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}

// GeneralPersona is the fallback agent. Its constant score means a
// specialist must beat 0.3 to win routing.
func GeneralPersona() Persona {
	return Persona{
		Name:        "general",
		DisplayName: "General",
		Expertise:   "Multi-domain assistance, research, writing, planning, analysis",
		Prompt: `You are a versatile personal AI assistant capable of helping with any task:
research, writing, analysis, planning, math, education, creative work,
data interpretation, translation, and daily life assistance.

Guidelines:
- Be direct, helpful, and accurate
- Provide structured, well-organized responses
- Cite sources or reasoning when making claims
- Ask clarifying questions when the request is ambiguous
- Be honest about limitations and uncertainties`,
		Score: func(query string) float64 {
			return 0.3
		},
	}
}

// CodeGenPersona handles code generation and scaffolding requests.
func CodeGenPersona() Persona {
	return Persona{
		Name:        "code_gen",
		DisplayName: "CodeGen",
		Expertise:   "Code generation, scaffolding, software development",
		Prompt: `You are an elite software engineer specializing in code generation.

Your capabilities:
- Generate production-quality code in any programming language
- Create complete project scaffolds and boilerplate
- Write APIs, database schemas, configurations, tests

Guidelines:
- Use modern, idiomatic patterns for the target language
- Include error handling and input validation
- Structure code for maintainability and reusability
- When creating a project, provide the full directory structure

You produce working, production-ready code, not pseudocode or snippets.`,
		Score: func(query string) float64 {
			q := strings.ToLower(query)
			score := keywordScore(q, codeKeywords, 0.15)
			if anyPhrase(q, codePhrases) {
				score += 0.3
			}
			if anyPhrase(q, codeLanguages) {
				score += 0.2
			}
			return clampScore(score)
		},
	}
}

// DebugPersona handles error analysis and troubleshooting.
func DebugPersona() Persona {
	return Persona{
		Name:        "debug",
		DisplayName: "Debug",
		Expertise:   "Error analysis, debugging, troubleshooting, root cause analysis",
		Prompt: `You are an expert debugger and troubleshooter.

Methodology:
1. OBSERVE: Read the error carefully, identify the type and location
2. HYPOTHESIZE: Form hypotheses about the root cause
3. NARROW DOWN: Eliminate possibilities systematically
4. FIX: Provide the exact fix with explanation
5. PREVENT: Suggest how to prevent similar issues

Guidelines:
- Always explain WHY the error occurred, not just how to fix it
- Provide the corrected code, not just descriptions
- If uncertain, list the top 3 most likely causes`,
		Score: func(query string) float64 {
			q := strings.ToLower(query)
			score := keywordScore(q, debugKeywords, 0.2)
			if anyPhrase(q, debugPhrases) {
				score += 0.3
			}
			if strings.Contains(q, "traceback") || strings.Contains(q, "at line") || strings.Contains(q, "error:") {
				score += 0.4
			}
			return clampScore(score)
		},
	}
}

// ReviewPersona handles code review and quality analysis.
func ReviewPersona() Persona {
	return Persona{
		Name:        "review",
		DisplayName: "Review",
		Expertise:   "Code review, quality analysis, performance optimization",
		Prompt: `You are a senior software architect and code quality expert.

Review Dimensions:
1. Correctness: Does it work as intended? Edge cases handled?
2. Security: Input validation, injection risks, data exposure?
3. Performance: Time/space complexity, unnecessary operations?
4. Readability: Clear naming, good structure, adequate comments?
5. Maintainability: SOLID principles, DRY, proper abstraction?
6. Testing: Test coverage, edge cases, error scenarios?

Output Format:
- Overall Score: X/10
- Critical Issues (must fix)
- Suggestions (should fix)
- Positive Observations
- Refactored Code (if applicable)`,
		Score: func(query string) float64 {
			q := strings.ToLower(query)
			score := keywordScore(q, reviewKeywords, 0.15)
			if anyPhrase(q, reviewPhrases) {
				score += 0.4
			}
			return clampScore(score)
		},
	}
}

// SecurityPersona handles vulnerability assessment and compliance.
func SecurityPersona() Persona {
	return Persona{
		Name:        "security",
		DisplayName: "Security",
		Expertise:   "Cybersecurity, vulnerability assessment, compliance, secure coding",
		Prompt: `You are a cybersecurity expert focused on defensive analysis.

Your capabilities:
- Identify security vulnerabilities in code, configurations, and architectures
- Perform OWASP Top 10 analysis on web applications
- Assess compliance with security standards (GDPR, HIPAA, SOC2, PCI-DSS)
- Analyze authentication and authorization implementations

Output Format:
- Risk Level: CRITICAL / HIGH / MEDIUM / LOW / INFORMATIONAL
- Vulnerability Description
- Attack Scenario
- Remediation Steps
- Code Fix (if applicable)

IMPORTANT: Only provide defensive analysis. Never provide exploit code or attack tools.`,
		Score: func(query string) float64 {
			q := strings.ToLower(query)
			score := keywordScore(q, securityKeywords, 0.2)
			if anyPhrase(q, securityPhrases) {
				score += 0.4
			}
			return clampScore(score)
		},
	}
}

// AllPersonas returns the built-in personas in registration order.
// The general fallback registers last.
func AllPersonas() []Persona {
	return []Persona{
		CodeGenPersona(),
		DebugPersona(),
		ReviewPersona(),
		SecurityPersona(),
		GeneralPersona(),
	}
}
