package pipeline

import "strings"

// cannedBucket pairs trigger substrings with a hand-authored answer.
type cannedBucket struct {
	name     string
	triggers []string
	// all requires every trigger to be present instead of any.
	all    bool
	answer string
}

// cannedBuckets is checked top-down; the most specific topics come first
// so "achievements" wins over the generic experience bucket and "what is
// react" wins over plain "react".
var cannedBuckets = []cannedBucket{
	{
		name:     "achievements",
		triggers: []string{"achievement", "accomplish", "proud of"},
		answer:   "A few things I'm proud of: building an automated grading pipeline at Aubot that cut review time roughly in half, shipping the EdgeDVR playback stack used in production VR deployments, and mentoring junior developers into independent feature owners.",
	},
	{
		name:     "greeting",
		triggers: []string{"hello", "hi ", "hey"},
		answer:   "Hi there! I'm happy to talk about my experience, projects, skills, or anything else on my profile. What would you like to know?",
	},
	{
		name:     "react definition",
		triggers: []string{"what is react"},
		answer:   "React is a JavaScript library for building user interfaces out of reusable components. I use it, usually with Next.js and TypeScript, for most of my front-end work.",
	},
	{
		name:     "node definition",
		triggers: []string{"what is node"},
		answer:   "Node.js is a JavaScript runtime for running code outside the browser. I use it for APIs, tooling and automation scripts.",
	},
	{
		name:     "react projects",
		triggers: []string{"react", "project"},
		all:      true,
		answer:   "My React work includes this portfolio chat you're using now, internal dashboards at Aubot, and several client sites built on Next.js.",
	},
	{
		name:     "python and java",
		triggers: []string{"python", "java"},
		all:      true,
		answer:   "I work in both: Python for automation, data processing and scripting, and Java for coursework tooling and backend services at Aubot.",
	},
	{
		name:     "companies",
		triggers: []string{"companies", "worked for", "employer", "where have you worked"},
		answer:   "I've worked at Aubot on education robotics software, at EdgeDVR on VR video delivery, and at Kimpton in a customer-facing role that taught me a lot about communication.",
	},
	{
		name:     "ai ml",
		triggers: []string{" ai", "machine learning", " ml"},
		answer:   "I build AI-assisted features rather than train models from scratch: retrieval pipelines, LLM integrations like this assistant, and automation that uses ML APIs.",
	},
	{
		name:     "experience",
		triggers: []string{"experience", "work", "career", "background"},
		answer:   "I'm a software developer with experience across education robotics at Aubot, VR video systems at EdgeDVR, and full-stack web work with React, Python and Java.",
	},
	{
		name:     "vr",
		triggers: []string{"vr", "virtual reality"},
		answer:   "At EdgeDVR I worked on virtual-reality video recording and playback, including the delivery pipeline that got 360° footage to headsets reliably.",
	},
	{
		name:     "skills",
		triggers: []string{"specialize", "technologies", "skills", "tech stack", "capabilities"},
		answer:   "My core stack is JavaScript/TypeScript with React and Next.js, Python, Java and Go, plus cloud deployment and CI tooling. I specialize in practical automation and full-stack product work.",
	},
	{
		name:     "projects",
		triggers: []string{"projects", "portfolio", "built"},
		answer:   "Highlights include this AI portfolio assistant, robotics course tooling at Aubot, and VR playback software at EdgeDVR. My GitHub has the open-source parts.",
	},
	{
		name:     "contact",
		triggers: []string{"contact", "hire", "reach", "get in touch"},
		answer:   "The easiest way to reach me is to ask me here to book a meeting, or use the contact details on this site. I'm open to interesting projects.",
	},
	{
		name:     "education",
		triggers: []string{"education", "degree", "study", "learning"},
		answer:   "I studied software engineering and I keep learning in public: most recently Go services, retrieval pipelines and LLM tooling.",
	},
	{
		name:     "about",
		triggers: []string{"about you", "who are you", "about yourself", "yourself"},
		answer:   "I'm a software developer who likes building practical tools: web apps, automation and AI-assisted features. Ask me about my work at Aubot, EdgeDVR, or my projects.",
	},
	{
		name:     "thanks",
		triggers: []string{"thank", "thanks"},
		answer:   "You're welcome! Anything else you'd like to know?",
	},
}

// matchCanned returns the first bucket whose triggers match the query, or
// nil if none do.
func matchCanned(query string) *cannedBucket {
	lower := " " + strings.ToLower(query) + " "
	for i := range cannedBuckets {
		b := &cannedBuckets[i]
		if b.all {
			matched := true
			for _, t := range b.triggers {
				if !strings.Contains(lower, t) {
					matched = false
					break
				}
			}
			if matched {
				return b
			}
			continue
		}
		for _, t := range b.triggers {
			if strings.Contains(lower, t) {
				return b
			}
		}
	}
	return nil
}

// genericAnswer is the terminal response; this path never fails.
const genericAnswer = "I can tell you about my experience, skills, projects, education, or how to get in touch — ask me something specific and I'll do my best!"
