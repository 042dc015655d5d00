package docs

import (
	"fmt"
	"strings"
)

// promptTemplate is the shared tail of every language-specific system
// prompt. The model is explicitly told to follow the seven-section
// template because without that instruction the output format drifts
// between calls, and the formatter downstream depends on it.
const promptTail = " ALWAYS follow the exact 7-section template structure provided in the user prompt. Maintain consistency in formatting, headings, and section organization."

// systemPrompts maps a file extension to the persona the model should
// adopt. Unknown extensions fall back to defaultSystemPrompt.
var systemPrompts = map[string]string{
	"py":   "You are an expert Python developer and technical writer. Generate clear, comprehensive documentation for Python code.",
	"js":   "You are an expert JavaScript developer and technical writer. Generate clear, comprehensive documentation for JavaScript code.",
	"ts":   "You are an expert TypeScript developer and technical writer. Generate clear, comprehensive documentation for TypeScript code.",
	"java": "You are an expert Java developer and technical writer. Generate clear, comprehensive documentation for Java code.",
	"cpp":  "You are an expert C++ developer and technical writer. Generate clear, comprehensive documentation for C++ code.",
	"c":    "You are an expert C developer and technical writer. Generate clear, comprehensive documentation for C code.",
	"go":   "You are an expert Go developer and technical writer. Generate clear, comprehensive documentation for Go code.",
	"rs":   "You are an expert Rust developer and technical writer. Generate clear, comprehensive documentation for Rust code.",
	"php":  "You are an expert PHP developer and technical writer. Generate clear, comprehensive documentation for PHP code.",
	"rb":   "You are an expert Ruby developer and technical writer. Generate clear, comprehensive documentation for Ruby code.",
	"html": "You are an expert web developer and technical writer. Generate clear, comprehensive documentation for HTML code.",
	"css":  "You are an expert web developer and technical writer. Generate clear, comprehensive documentation for CSS code.",
	"sql":  "You are an expert database developer and technical writer. Generate clear, comprehensive documentation for SQL code.",
	"sh":   "You are an expert system administrator and technical writer. Generate clear, comprehensive documentation for shell scripts.",
	"md":   "You are an expert technical writer. Generate clear, comprehensive documentation for Markdown content.",
	"json": "You are an expert developer and technical writer. Generate clear, comprehensive documentation for JSON configuration files.",
	"yaml": "You are an expert developer and technical writer. Generate clear, comprehensive documentation for YAML configuration files.",
	"yml":  "You are an expert developer and technical writer. Generate clear, comprehensive documentation for YAML configuration files.",
	"mod":  "You are an expert Go developer and technical writer. Generate clear, comprehensive documentation for Go module files.",
	"sum":  "You are an expert Go developer and technical writer. Generate clear, comprehensive documentation for Go dependency files.",
}

const defaultSystemPrompt = "You are an expert software developer and technical writer. Generate clear, comprehensive documentation for the provided code."

// fileExtension extracts the lowercased extension from a file name, or
// "unknown" when the name has none.
func fileExtension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return "unknown"
	}
	return strings.ToLower(fileName[idx+1:])
}

// systemPrompt returns the system message for the given extension.
func systemPrompt(ext string) string {
	if p, ok := systemPrompts[ext]; ok {
		return p + promptTail
	}
	return defaultSystemPrompt + promptTail
}

// guidance holds per-section hints injected into the user prompt so the
// model tailors each section to the file type (a go.mod has no return
// values; a Python module has no checksum entries).
type guidance struct {
	overview   string
	components string
	params     string
	returns    string
	examples   string
}

var extensionGuidance = map[string]guidance{
	"mod": {
		overview:   "This `go.mod` file defines the Go module configuration for the project. Describe the module name, Go version, and purpose of the service/application.",
		components: "As a `go.mod` file, describe the key dependency categories (web framework, database, CLI tools, etc.) rather than classes or functions.",
		params:     "_Not applicable to `go.mod` files_, as they specify dependencies and versions rather than function parameters.",
		returns:    "_Not applicable._ The `go.mod` file does not define functions or return values.",
		examples:   "Include commands like `go mod tidy`, `go build`, `go get`, and project initialization examples.",
	},
	"sum": {
		overview:   "The `go.sum` file is part of the Go modules system providing cryptographic verification for dependencies.",
		components: "Describe the structure of checksum entries (module path, version, hash) rather than code components.",
		params:     "_Not applicable to `go.sum` files_, as they are automatically generated dependency checksums.",
		returns:    "_Not applicable._ The `go.sum` file does not define functions or return values.",
		examples:   "Include Go commands that interact with go.sum like `go mod verify`, `go build`, `go mod tidy`.",
	},
	"py": {
		overview:   "This Python file/module [describe main purpose]. Focus on the primary functionality and role within the application.",
		components: "List and describe classes, functions, constants, and key variables. Include class inheritance and method signatures.",
		params:     "Document function parameters, their types, default values, and validation requirements.",
		returns:    "Document return types, possible return values, and any exceptions that may be raised.",
		examples:   "Provide practical code examples showing how to import, instantiate, and use the main components.",
	},
	"go": {
		overview:   "This Go file/package [describe main purpose]. Focus on the package functionality and exported types.",
		components: "List and describe structs, interfaces, functions, constants, and exported variables.",
		params:     "Document function parameters, struct fields, their types, and any validation rules.",
		returns:    "Document return types, error conditions, and any side effects.",
		examples:   "Show package import, struct initialization, method calls, and error handling patterns.",
	},
	"js": {
		overview:   "This JavaScript file/module [describe main purpose]. Focus on the primary functionality and exports.",
		components: "List and describe functions, classes, objects, constants, and exported variables.",
		params:     "Document function parameters, their types, default values, and validation requirements.",
		returns:    "Document return types, possible return values, and any thrown exceptions.",
		examples:   "Provide practical code examples showing imports, instantiation, and usage patterns.",
	},
	"ts": {
		overview:   "This TypeScript file/module [describe main purpose]. Focus on the primary functionality and type definitions.",
		components: "List and describe interfaces, classes, types, functions, and exported members.",
		params:     "Document function parameters, their TypeScript types, default values, and constraints.",
		returns:    "Document return types, possible return values, and any thrown exceptions.",
		examples:   "Show import statements, type usage, class instantiation, and method calls.",
	},
	"json": {
		overview:   "This JSON file serves as a configuration/data file. Describe its purpose and how it's used in the application.",
		components: "Describe the main configuration sections, data structures, and key-value pairs.",
		params:     "_Not applicable to JSON files_, as they contain data structures rather than function parameters.",
		returns:    "_Not applicable._ JSON files define data structures and configuration values.",
		examples:   "Show how the configuration is loaded and used in the application, including environment-specific variations.",
	},
	"yaml": {
		overview:   "This YAML file serves as a configuration file. Describe its purpose and role in the application or deployment.",
		components: "Describe the main configuration sections, hierarchical structure, and key settings.",
		params:     "_Not applicable to YAML files_, as they contain configuration data rather than function parameters.",
		returns:    "_Not applicable._ YAML files define configuration structures and values.",
		examples:   "Show how the configuration is loaded, validated, and applied in the application or deployment process.",
	},
}

var defaultGuidance = guidance{
	overview:   "This file/module [describe main purpose]. Focus on the primary functionality and role within the application.",
	components: "List and describe the main components, functions, classes, or configuration elements.",
	params:     "Document parameters, arguments, or configuration options if applicable.",
	returns:    "Document return values, outputs, or results if applicable.",
	examples:   "Provide practical usage examples and common operations.",
}

// userPrompt builds the structured user message: the source code fenced
// in its own language, followed by the full seven-section template the
// model must reproduce.
func userPrompt(code, fileName, ext string) string {
	g, ok := extensionGuidance[ext]
	if !ok {
		g = defaultGuidance
	}

	return fmt.Sprintf(`Please generate comprehensive documentation for the following %[1]s file: %[2]s

`+"```%[1]s\n%[3]s\n```"+`

IMPORTANT: Follow this EXACT format and structure for consistency. Use this precise template:

# Documentation: `+"`%[2]s`"+`

## 1. Overview

%[4]s

---

## 2. Key Components

%[5]s

---

## 3. Parameters/Arguments

%[6]s

---

## 4. Return Values

%[7]s

---

## 5. Dependencies

List external dependencies, imports, or required modules. For config files, categorize dependencies by purpose. Use tables when appropriate with columns: Package/Module | Purpose/Description

---

## 6. Usage Examples

%[8]s

---

## 7. Best Practices

List recommendations, security considerations, maintenance tips, and common pitfalls to avoid. Use bullet points starting with action verbs.

---

FORMATTING REQUIREMENTS:
- Use exactly the heading structure shown above (## 1. Overview, ## 2. Key Components, etc.)
- Always include horizontal separators (---) between sections
- Use **bold** for important terms and concepts
- Use `+"`backticks`"+` for code elements, file names, and technical terms
- Use bullet points for lists (start with -)
- Use tables for dependency lists when appropriate
- Keep consistent spacing and indentation
- End with a summary note if the file is foundational/skeletal

Format the documentation in clear, well-structured Markdown following this exact template.`,
		ext, fileName, code,
		g.overview, g.components, g.params, g.returns, g.examples,
	)
}
