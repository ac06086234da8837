package draft

import "fmt"

// Template is a canned outreach email. Subject and body may carry Liquid
// placeholders such as {{ name }} and {{ company }} that are filled per
// recipient at send time; anything else is left for the user to edit.
type Template struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Draft returns the template's subject/body as an editable draft.
func (t Template) Draft() Draft {
	return Draft{Subject: t.Subject, Body: t.Body}
}

var templates = []Template{
	{
		ID:       1,
		Name:     "Cold Email - Software Role",
		Category: "Job Application",
		Subject:  "Interested in Frontend Developer position at {{ company }}",
		Body: `Hi {{ name | default: "there" }},

I hope this email finds you well. I'm reaching out because I'm impressed with {{ company }}'s innovative approach to the industry.

With several years of experience in frontend development and a track record of building scalable applications, I believe I can add significant value to your team.

I'd love to discuss how my skills in React, TypeScript, and modern web technologies align with your team's needs.

Would you be available for a 20-minute call this week?

Best regards,
[Your Name]`,
	},
	{
		ID:       2,
		Name:     "Startup Outreach",
		Category: "General Outreach",
		Subject:  "Let's build something amazing together",
		Body: `Hi {{ name | default: "there" }},

I've been following {{ company }}'s journey and love what you're building.

As someone passionate about the space, I think there might be great opportunities to collaborate. I believe I could help accelerate your growth.

Happy to grab coffee (virtual or in-person) to explore possibilities.

Looking forward to hearing from you!

Cheers,
[Your Name]`,
	},
	{
		ID:       3,
		Name:     "Consulting Follow-up",
		Category: "Follow-up",
		Subject:  "Following up on our conversation",
		Body: `Hi {{ name | default: "there" }},

Thank you for taking the time to chat. I really enjoyed our conversation.

I've been thinking about what you mentioned, and I believe I have some valuable insights to share.

Would you be open to continuing our discussion next week?

Best regards,
[Your Name]`,
	},
	{
		ID:       4,
		Name:     "Partnership Proposal",
		Category: "Business",
		Subject:  "Partnership opportunity - {{ company }}",
		Body: `Hi {{ name | default: "there" }},

I've been impressed by {{ company }}'s success in its space.

I believe there's a compelling opportunity for our organizations to collaborate and create mutual value.

I'd love to present a detailed proposal at your convenience. Are you available for a brief call this week?

Best regards,
[Your Name]`,
	},
	{
		ID:       5,
		Name:     "Networking Request",
		Category: "Networking",
		Subject:  "Would love to connect",
		Body: `Hi {{ name | default: "there" }},

I noticed we share an interest in the same space.

I've been following {{ company }}'s work and find it really inspiring.

I'd love to connect and learn more about your journey. Would you be open to grabbing a coffee or virtual chat?

Best regards,
[Your Name]`,
	},
}

// Templates returns the built-in template catalog.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// TemplateByID looks up a template in the catalog.
func TemplateByID(id int) (Template, error) {
	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("unknown template id %d", id)
}
