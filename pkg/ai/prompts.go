package ai

// CypherPrompt instructs the model to translate a natural-language question
// into a single Cypher statement constrained to the declared graph schema.
// The first placeholder receives the schema description, the second the
// user question.
const CypherPrompt = `
# Task Context
You are a helpful assistant that generates a Cypher statement to query a graph database.

# Background Data
Schema:
%s

# Detailed Task Description & Rules
- Use only the node labels, relationship types and properties provided in the schema.
- Do not use any other labels, relationship types or properties that are not provided.
- Do not include any explanations or apologies in your response.
- Do not respond to any request that asks for anything other than constructing a Cypher statement.
- Do not include any text except the generated Cypher statement.

# Immediate Task Description or Request
The question is:
%s

# Output Formatting
Return a JSON object with this structure:
{
  "cypher": "<the generated Cypher statement>"
}
`

// NoDataPrompt is used when a strategy has no grounding material for a
// question. The model must say so instead of guessing.
const NoDataPrompt = `
# Task Context
You are an assistant answering questions about an incident knowledge graph.

# Detailed Task Description & Rules
- No relevant data was found for the user's question.
- Reply with a single short sentence stating that the knowledge graph holds no information for this question.
- Do not invent incidents, people, products or passages.

# Immediate Task Description or Request
The question was:
%s
`
