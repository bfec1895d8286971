package mockapi

import (
	"time"

	"github.com/pders01/aihub/internal/content"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

type account struct {
	user         content.User
	passwordHash string
}

func seedAccounts() []account {
	users := []content.User{
		{ID: "user1", Email: "user1@example.com", DisplayName: "Alex Johnson", AvatarURL: "https://i.pravatar.cc/150?u=user1@example.com"},
		{ID: "user2", Email: "user2@example.com", DisplayName: "Sam Rodriguez", AvatarURL: "https://i.pravatar.cc/150?u=user2@example.com"},
		{ID: "user3", Email: "user3@example.com", DisplayName: "Taylor Kim", AvatarURL: "https://i.pravatar.cc/150?u=user3@example.com"},
		{ID: "user4", Email: "user4@example.com", DisplayName: "Jordan Patel"},
	}
	out := make([]account, 0, len(users))
	for _, u := range users {
		out = append(out, account{user: u, passwordHash: hashPassword(DemoPassword)})
	}
	return out
}

type seedRecord struct {
	item    content.Item
	likedBy []string
}

func seedCatalog(now time.Time) []seedRecord {
	ago := func(days int) string {
		return now.AddDate(0, 0, -days).UTC().Format(time.RFC3339)
	}
	tool := func(id, name, desc, img, url string, tags []string, daysAgo int, likedBy ...string) seedRecord {
		return seedRecord{
			item: &content.Tool{
				Base: content.Base{ID: id, Title: name, Description: desc, Tags: tags, ThumbnailURL: img, CreatedAt: ago(daysAgo)},
				URL:  url,
			},
			likedBy: likedBy,
		}
	}
	news := func(id, title, desc, author, url string, tags []string, daysAgo int) seedRecord {
		return seedRecord{item: &content.News{
			Base:        content.Base{ID: id, Title: title, Description: desc, Tags: tags, CreatedAt: ago(daysAgo)},
			SourceURL:   url,
			Author:      author,
			PublishDate: ago(daysAgo),
			BodyHTML:    "<p>" + desc + "</p>",
		}}
	}
	podcast := func(id, title, desc, host, audio string, tags []string, seconds, episode, daysAgo int) seedRecord {
		ep := episode
		return seedRecord{item: &content.Podcast{
			Base:            content.Base{ID: id, Title: title, Description: desc, Tags: tags, CreatedAt: ago(daysAgo)},
			AudioURL:        audio,
			DurationSeconds: seconds,
			Host:            host,
			EpisodeNumber:   &ep,
		}}
	}

	return []seedRecord{
		tool("tool1", "ChatGPT",
			"Advanced AI language model that can have natural conversations and assist with various tasks.",
			"https://i.imgur.com/hepj9ZS.png", "https://chat.openai.com/",
			[]string{"AI", "NLP", "Assistant", "Text Generation"}, 60, "user1", "user2", "user3"),
		tool("tool2", "DALL-E",
			"An AI system that creates realistic images and art from natural language descriptions.",
			"https://i.imgur.com/Ld5F2K3.png", "https://openai.com/dall-e-2/",
			[]string{"AI", "Art", "Image Generation"}, 45, "user2", "user3"),
		tool("tool3", "Midjourney",
			"AI art generator that creates stunning images from text prompts.",
			"https://i.imgur.com/8BfrqUr.jpg", "https://www.midjourney.com/",
			[]string{"AI", "Art", "Design", "Creative"}, 30, "user1"),
		tool("tool4", "GitHub Copilot",
			"AI pair programming tool that helps you write code faster with suggestions based on comments and context.",
			"https://i.imgur.com/jcfr5gn.png", "https://github.com/features/copilot",
			[]string{"AI", "Coding", "Productivity", "Developer Tools"}, 20, "user1", "user2", "user3", "user4"),
		tool("tool5", "Notion AI",
			"AI writing assistant integrated into Notion to help with drafting, editing, and summarizing content.",
			"https://i.imgur.com/MCXrrF3.png", "https://www.notion.so/product/ai",
			[]string{"AI", "Writing", "Note-taking", "Organization"}, 15, "user2"),
		tool("tool6", "Jasper",
			"AI content generation platform for marketers and content creators.",
			"https://i.imgur.com/pscyjPa.png", "https://www.jasper.ai/",
			[]string{"AI", "Marketing", "Content", "Writing"}, 10),

		{
			item: &content.Document{
				Base: content.Base{
					ID:          "doc1",
					Title:       "Getting Started with AI Tools",
					Description: "A beginner's guide to using AI tools effectively in your workflow.",
					Tags:        []string{"beginners", "guide", "ai"},
					CreatedAt:   ago(0),
				},
				Body: "# Getting Started with AI Tools\n\n## Introduction\nAI tools can help you work faster.\n\n" +
					"## Choosing a tool\n- Start from the task\n- Try the free tier\n- Compare the results\n",
				FileType: "markdown",
			},
			likedBy: []string{"user1"},
		},
		{
			item: &content.Document{
				Base: content.Base{
					ID:          "doc2",
					Title:       "Advanced Prompt Engineering",
					Description: "Learn techniques for creating effective prompts for language models.",
					Tags:        []string{"prompt-engineering", "advanced", "techniques"},
					CreatedAt:   ago(1),
				},
				Body: "# Advanced Prompt Engineering\n\n## Introduction\nPrompt engineering is the art of communicating effectively with language models.\n\n" +
					"## Techniques\n- Chain-of-thought prompting\n- Few-shot learning\n- Instruction fine-tuning\n\n" +
					"## Case Studies\nExamples of before/after prompts and their results.\n",
				FileType: "markdown",
			},
		},

		news("news-1", "New AI Tool Released to Enhance Productivity",
			"A groundbreaking AI tool has been launched that promises to revolutionize how teams collaborate and manage workflows.",
			"Jane Smith", "https://example.com/news/ai-tool", []string{"AI", "Productivity", "Technology"}, 0),
		news("news-2", "Industry Report: The Future of Work in 2024",
			"A comprehensive analysis of workplace trends and predictions for the coming year, with insights from industry experts.",
			"Michael Johnson", "https://example.com/news/future-work-2024", []string{"Future of Work", "Industry Trends", "Research"}, 2),
		news("news-3", "Upcoming Conference to Feature Leading Tech Innovators",
			"The annual TechForward conference will showcase cutting-edge technologies and bring together thought leaders from around the world.",
			"Alex Thompson", "https://example.com/news/tech-conference", []string{"Events", "Conference", "Innovation"}, 4),
		news("news-4", "Survey Reveals Top Skills Employers Are Looking For",
			"New research identifies the most in-demand skills for the modern workforce, with technology and soft skills topping the list.",
			"Emily Chen", "https://example.com/news/employer-skills", []string{"Career Development", "Skills", "Employment"}, 6),
		news("news-5", "Success Story: How Company X Transformed Their Operations",
			"A case study on how a leading organization implemented new technologies to streamline workflows and boost productivity.",
			"David Williams", "https://example.com/news/company-x-transformation", []string{"Case Study", "Digital Transformation", "Success Story"}, 8),

		podcast("podcast-1", "The Future of AI in Everyday Work",
			"In this episode, we discuss how artificial intelligence is transforming daily work routines and what to expect in the coming years.",
			"Dr. Emma Chen", "https://example.com/podcasts/future-ai.mp3", []string{"AI", "Technology", "Future of Work"}, 1845, 5, 0),
		podcast("podcast-2", "Productivity Strategies for Remote Teams",
			"Learn effective strategies to boost productivity and collaboration in distributed and remote work environments.",
			"Michael Rivers", "https://example.com/podcasts/remote-productivity.mp3", []string{"Remote Work", "Productivity", "Team Management"}, 2520, 4, 7),
		podcast("podcast-3", "Cybersecurity Essentials for Modern Businesses",
			"This episode covers fundamental cybersecurity practices that every business should implement to protect sensitive data.",
			"Alex Morgan", "https://example.com/podcasts/cybersecurity.mp3", []string{"Cybersecurity", "Business", "Technology"}, 1980, 3, 14),
		podcast("podcast-4", "Leadership in Times of Disruption",
			"Senior executives share their insights on effective leadership strategies during periods of organizational and market disruption.",
			"Sarah Williams", "https://example.com/podcasts/leadership-disruption.mp3", []string{"Leadership", "Management", "Business Strategy"}, 3300, 2, 21),
		podcast("podcast-5", "Digital Transformation Success Stories",
			"Case studies exploring how organizations successfully implemented digital transformation initiatives and the lessons learned.",
			"David Thompson", "https://example.com/podcasts/digital-transformation.mp3", []string{"Digital Transformation", "Case Study", "Innovation"}, 2700, 1, 28),
	}
}

type seedComment struct {
	id, toolID, text, author string
	daysAgo                  int
}

var seedComments = []seedComment{
	{"comment1", "tool1", "ChatGPT has completely transformed how I work. The responses are incredibly helpful!", "user2", 50},
	{"comment2", "tool1", "Great for brainstorming ideas, but sometimes it makes up information.", "user3", 40},
	{"comment3", "tool2", "DALL-E creates amazing images! I use it for all my creative projects now.", "user1", 30},
	{"comment4", "tool4", "GitHub Copilot has made me much more productive. Highly recommended for developers!", "user4", 20},
	{"comment5", "tool4", "It sometimes suggests code that doesn't quite work, but overall it's a huge time-saver.", "user1", 15},
	{"comment6", "tool5", "Notion AI has made taking notes and drafting documents so much faster.", "user3", 10},
}
