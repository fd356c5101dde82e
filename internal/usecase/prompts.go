package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

const profileSystemPrompt = `You write professional profile copy for job seekers. ` +
	`You reply with one JSON object and nothing else.`

const profileResponseFormat = `Respond with a single JSON object with exactly these fields:
{
  "elevator_pitch": "<two or three sentence elevator pitch>",
  "about_me": "<LinkedIn About Me section, one to three paragraphs>",
  "retrieved_keywords": ["<each keyword you actually used>"],
  "reason": "<one or two sentences explaining how the copy reflects the input>"
}`

const noKeywordsPhrase = "relevant skills and expertise"

func profilePrompt(in domain.UserInput, keywords []string, background string) string {
	kw := noKeywordsPhrase
	if len(keywords) > 0 {
		kw = strings.Join(keywords, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Craft a highly engaging and personalized elevator pitch and a LinkedIn 'About Me' section for %s. ", in.Profession)
	if background != "" {
		fmt.Fprintf(&b, "The individual is a %s professional with the following background:\n%s\n\n", in.ExperienceLevel, background)
		fmt.Fprintf(&b, "Use keywords such as %s. Ensure the tone is confident, professional, and aspirational. ", kw)
		b.WriteString("Do not fabricate any details but fully utilize the provided background information and keywords. ")
		b.WriteString("Focus on their professional expertise, unique qualities, and career goals. ")
	} else {
		fmt.Fprintf(&b, "The individual is a %s professional. ", in.ExperienceLevel)
		fmt.Fprintf(&b, "Use keywords such as %s. Ensure the tone is confident, professional, and aspirational. ", kw)
		b.WriteString("Since no specific background information is provided, focus on the keywords and profession to generate a relevant profile. ")
		b.WriteString("Highlight professional expertise, potential unique qualities, and likely career goals. ")
	}
	b.WriteString("Make the profile appealing to recruiters, clients, and colleagues.\n\n")
	b.WriteString(profileResponseFormat)
	return b.String()
}

const profileSchema = `{
  "type": "object",
  "required": ["elevator_pitch", "about_me", "retrieved_keywords", "reason"],
  "properties": {
    "elevator_pitch": {"type": "string", "minLength": 1},
    "about_me": {"type": "string", "minLength": 1},
    "retrieved_keywords": {"type": "array", "items": {"type": "string"}},
    "reason": {"type": "string"}
  }
}`

const evaluationSystemPrompt = `You are an expert evaluator of AI-generated content. You reply with one JSON object and nothing else.`

const evaluationSchema = `{
  "type": "object",
  "required": ["evaluation", "explanation"],
  "properties": {
    "evaluation": {
      "type": "object",
      "required": ["keywords_quality", "relevance", "hallucination", "overall_quality"],
      "properties": {
        "keywords_quality": {"type": "integer", "minimum": 1, "maximum": 100},
        "relevance": {"type": "integer", "minimum": 1, "maximum": 100},
        "hallucination": {"type": "integer", "minimum": 1, "maximum": 100},
        "overall_quality": {"type": "integer", "minimum": 1, "maximum": 100}
      }
    },
    "explanation": {"type": "string"}
  }
}`

// evaluationRubric is followed by the input and output JSON documents.
const evaluationRubric = `Your task is to evaluate the quality of the output based on the input provided. Your evaluation must strictly follow this JSON structure:

{
    "evaluation": {
        "keywords_quality": <integer 1-100>,
        "relevance": <integer 1-100>,
        "hallucination": <integer 1-100>,
        "overall_quality": <integer 1-100>
    },
    "explanation": "<detailed explanation of the evaluation>"
}

### Evaluation Criteria:
1. **Keywords Quality**: How well do the keywords in the output match the profession and background provided in the input? Score 1-100 based on how accurate and relevant the keywords are.
2. **Relevance**: How relevant is the generated profile (elevator pitch and About Me) to the profession and background provided in the input? Score 1-100 based on the alignment of the generated content to the input.
3. **Hallucination**: How much does the output invent information not present or implied in the input? Score 1-100 where a lower score indicates more hallucination (less reliable output).
4. **Overall Quality**: General assessment of the output's coherence, fluency, and alignment with the input. Score 1-100.

### Examples:

#### High-Quality Example
Input:
{"profession": "Product Manager", "experience_level": "senior", "keywords": ["Machine Learning", "Deep Learning", "AI"], "background": "Industry expert with over 10 years of experience in software engineering.", "similarity_score_input": 60}
Output:
{"elevator_pitch": "As a seasoned product manager with a strong foundation in software engineering and a deep understanding of cutting-edge technologies like Deep Learning, AI, and Machine Learning, I drive innovation and deliver top-notch solutions that exceed customer expectations.", "about_me": "With over a decade of experience in software engineering, I have honed my skills in product management to lead cross-functional teams in developing successful products rooted in advanced technologies such as Deep Learning, AI, and Machine Learning. My passion for leveraging data-driven insights and market trends allows me to create impactful strategies that drive business growth and foster customer satisfaction.", "retrieved_keywords": ["Deep Learning", "AI", "Machine Learning"], "reason": "The copy reflects the stated software engineering background and the supplied keywords."}
Your output:
{"evaluation": {"keywords_quality": 95, "relevance": 92, "hallucination": 90, "overall_quality": 93}, "explanation": "The keywords are highly relevant to the profession and background. The profile aligns well with the input, with minimal hallucination and an excellent overall quality."}

#### Medium-Quality Example
Input:
{"profession": "UX Designer", "experience_level": "mid-level", "keywords": ["User Research", "Prototyping"], "background": "Creative thinker with experience in design strategy.", "similarity_score_input": 50}
Output:
{"elevator_pitch": "As a UX Designer, I excel at delivering user-centered solutions by leveraging my expertise in prototyping and design tools.", "about_me": "With experience in user research, I aim to create innovative designs. My passion for design strategy has driven me to develop impactful products for users.", "retrieved_keywords": ["User Research", "Prototyping", "Design Tools"], "reason": "The output captures some relevant keywords but lacks depth in connecting them to the provided background and profession."}
Your output:
{"evaluation": {"keywords_quality": 70, "relevance": 75, "hallucination": 60, "overall_quality": 68}, "explanation": "The keywords are somewhat relevant but could be improved. The relevance to the input is moderate, and there is some minor hallucination. Overall quality is average."}

#### Low-Quality Example
Input:
{"profession": "Data Analyst", "experience_level": "entry-level", "keywords": ["SQL", "Excel", "Data Visualization"], "background": "Recent graduate with coursework in data analytics.", "similarity_score_input": 40}
Output:
{"elevator_pitch": "I am a data enthusiast who loves working with numbers and creating beautiful charts using Photoshop and Canva.", "about_me": "My passion for design and numbers allows me to excel in presenting data-driven stories.", "retrieved_keywords": ["Photoshop", "Canva"], "reason": "The output includes keywords unrelated to the input."}
Your output:
{"evaluation": {"keywords_quality": 40, "relevance": 30, "hallucination": 20, "overall_quality": 35}, "explanation": "The keywords are largely irrelevant, the profile does not align well with the input, and there is significant hallucination. Overall quality is poor."}
`

func evaluationPrompt(inputJSON, outputJSON []byte) string {
	var b strings.Builder
	b.WriteString(evaluationRubric)
	b.WriteString("\n### Input:\n")
	b.Write(inputJSON)
	b.WriteString("\n\n### Output:\n")
	b.Write(outputJSON)
	b.WriteString("\n\nYour output:\n")
	return b.String()
}
