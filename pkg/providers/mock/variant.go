package mock

import (
	"embed"
	"strings"

	"github.com/uigen/go-llm/pkg/llm"
)

//go:embed templates/*.jsx
var templates embed.FS

const componentPlaceholder = "__COMPONENT__"

// Variant is one of the canned components the scripts produce
type Variant struct {
	// Name is the component name, used for the file and the import
	Name string
	// Type is the short label used in the summary text
	Type string

	template string
	oldStr   string
	newStr   string
	appCode  string
}

var (
	ContactForm = Variant{
		Name:     "ContactForm",
		Type:     "form",
		template: "templates/contact_form.jsx",
		oldStr:   "    console.log('Form submitted:', formData);",
		newStr:   "    console.log('Form submitted:', formData);\n    alert('Thank you! We\\'ll get back to you soon.');",
	}
	Card = Variant{
		Name:     "Card",
		Type:     "card",
		template: "templates/card.jsx",
		oldStr:   `      <div className="p-6">`,
		newStr:   `      <div className="p-6 hover:bg-gray-50 transition-colors">`,
		appCode:  "templates/card_app.jsx",
	}
	Counter = Variant{
		Name:     "Counter",
		Type:     "counter",
		template: "templates/counter.jsx",
		oldStr:   "  const increment = () => setCount(count + 1);",
		newStr:   "  const increment = () => setCount(prev => prev + 1);",
	}
)

// ClassifyVariant picks the variant from the text of the last user message.
// "form" wins over "card"; anything else is a Counter.
func ClassifyVariant(history []llm.Message) Variant {
	msg, ok := llm.LastMessageWithRole(history, llm.RoleUser)
	if !ok {
		return Counter
	}

	prompt := strings.ToLower(msg.GetText())
	switch {
	case strings.Contains(prompt, "form"):
		return ContactForm
	case strings.Contains(prompt, "card"):
		return Card
	default:
		return Counter
	}
}

// ComponentPath is where the component file is created
func (v Variant) ComponentPath() string {
	return "/components/" + v.Name + ".jsx"
}

// ComponentCode returns the full source of the component
func (v Variant) ComponentCode() string {
	return mustTemplate(v.template)
}

// Replacement returns the old and new fragments of the enhance step
func (v Variant) Replacement() (oldStr, newStr string) {
	return v.oldStr, v.newStr
}

// AppCode returns the source of /App.jsx rendering the component
func (v Variant) AppCode() string {
	if v.appCode != "" {
		return mustTemplate(v.appCode)
	}
	return strings.ReplaceAll(mustTemplate("templates/app.jsx"), componentPlaceholder, v.Name)
}

func mustTemplate(name string) string {
	data, err := templates.ReadFile(name)
	if err != nil {
		panic("mock: missing template " + name)
	}
	return strings.TrimRight(string(data), "\n")
}
