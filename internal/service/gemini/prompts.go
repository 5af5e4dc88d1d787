package gemini

import (
	"fmt"

	"visaverse/internal/models"
)

func guidancePrompt(req models.GuidanceRequest) string {
	return fmt.Sprintf(`You are an AI visa assistant. Give CONCISE visa guidance that is easy to scan (300 words maximum).

Traveller:
- From: %[1]s
- To: %[2]s
- Purpose: %[3]s

Answer in exactly this markdown layout:

## 🎯 Visa Type
[1-2 sentences naming the specific visa required]

## 📋 Key Documents
- [only the 5-6 most critical documents]

## ✅ Quick Steps
1. [step, 8 words max]
[4-5 steps only]

## ⚠️ Common Pitfalls
- [rejection reason, 10 words max]
[top 3 only]

## 💡 Pro Tip
[one practical insider tip in 1-2 sentences]

Rules:
- Keep it short and scannable
- Plain words, no jargon
- No disclaimers or filler
- Be specific to travelling to %[2]s from %[1]s`, req.Origin, req.Destination, req.Purpose)
}

func analysisPrompt(documentText string) string {
	return fmt.Sprintf(`Analyze this visa or immigration document. Be CONCISE (250 words maximum).

Document content:
%s

Answer in this markdown layout:

## 📄 Document Type
[what the document is, one sentence]

## ✅ Strengths
- [2-3 strengths]

## ⚠️ Issues Found
- [top 3-4 issues]

## 💡 Quick Fixes
1. [action item, 10 words max]
[3-4 fixes]

Rules:
- Short and actionable
- No legal disclaimers
- Focus on what matters most`, documentText)
}

const visionPrompt = `You are an AI document analyzer for visa and immigration applications. Analyze the attached document image and give actionable feedback.

Extract and analyze its content, then provide:
1. DOCUMENT TYPE: what kind of document this appears to be
2. EXTRACTED KEY INFORMATION: the main details found
3. MISSING INFORMATION: key details that are missing or unclear
4. CLARITY ISSUES: parts that are hard to read or badly formatted
5. ACTIONABLE SUGGESTIONS: specific ways to improve the document

Rules:
- Be constructive and helpful
- Use bullet points
- Focus on practical improvements
- Make no legal claims or guarantees
- End with a disclaimer that this is AI-generated feedback, not legal advice`
