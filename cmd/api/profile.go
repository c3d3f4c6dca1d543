package main

import (
	"github.com/dkarki/twinfolio/internal/service/tools"
	"github.com/dkarki/twinfolio/internal/storage/logstore"
)

// profileDocuments backs the keyword retrieval leg with the owner's
// profile text.
func profileDocuments() []string {
	return []string{
		"I'm a software developer with experience in full-stack web development using React, Next.js and TypeScript, plus backend work in Python, Java and Go.",
		"At Aubot I built automation for robotics and coding education: grading pipelines in Python, course tooling in Java, and internal dashboards in React.",
		"At EdgeDVR I worked on virtual reality video recording and playback, building the delivery pipeline that streams 360-degree footage to headsets.",
		"At Kimpton I worked in a customer-facing role that sharpened my communication and taught me how to translate user needs into concrete work.",
		"My projects include this AI portfolio assistant, open-source tooling on GitHub, and several client web applications built with React and Next.js.",
		"My skills cover JavaScript, TypeScript, React, Next.js, Node, Python, Java, Go, SQL, cloud deployment and CI automation.",
		"I studied software engineering and keep learning through side projects, most recently Go backend services and retrieval pipelines for LLM applications.",
		"Achievements I'm proud of: cutting review time in half with an automated grading pipeline at Aubot, shipping EdgeDVR's production playback stack, and mentoring junior developers.",
	}
}

// workHistory feeds the work_history tool.
func workHistory() []tools.WorkEntry {
	return []tools.WorkEntry{
		{
			Company: "Aubot",
			Role:    "Software Developer",
			Period:  "2022 - present",
			Summary: "robotics and coding education: Python grading automation, Java course tooling, React dashboards",
		},
		{
			Company: "EdgeDVR",
			Role:    "Software Developer",
			Period:  "2020 - 2022",
			Summary: "VR video recording and playback, 360-degree delivery pipeline",
		},
		{
			Company: "Kimpton",
			Role:    "Guest Services",
			Period:  "2019 - 2020",
			Summary: "customer-facing role focused on communication and service",
		},
	}
}

// profileContent seeds the keyword-addressed content table used by the
// relational fallback level.
func profileContent() []logstore.Entry {
	return []logstore.Entry{
		{Keyword: "react", Answer: "I use React with Next.js and TypeScript for most of my front-end work, including this portfolio assistant."},
		{Keyword: "python", Answer: "Python is my go-to for automation and data processing; I used it heavily for grading pipelines at Aubot."},
		{Keyword: "java", Answer: "I've used Java for course tooling and backend services at Aubot."},
		{Keyword: "golang", Answer: "I build backend services in Go, including the API behind this assistant."},
		{Keyword: "experience", Answer: "I've worked at Aubot on education robotics software, at EdgeDVR on VR video delivery, and in customer service at Kimpton."},
		{Keyword: "skills", Answer: "My core stack: JavaScript/TypeScript, React, Next.js, Python, Java, Go, SQL and cloud deployment."},
		{Keyword: "projects", Answer: "Highlights: this AI portfolio assistant, robotics course tooling at Aubot, and VR playback software at EdgeDVR."},
		{Keyword: "education", Answer: "I studied software engineering and keep learning in public through side projects."},
		{Keyword: "contact", Answer: "Ask me here to book a meeting, or use the contact details on this site."},
		{Keyword: "achievements", Answer: "An automated grading pipeline that halved review time, EdgeDVR's production playback stack, and mentoring junior developers."},
		{Keyword: "virtual reality", Answer: "At EdgeDVR I built VR video recording and playback software for 360-degree footage."},
	}
}
