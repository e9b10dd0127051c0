package oracle

import "fmt"

const systemPrompt = `You are an investigative analyst assembling a knowledge graph about a single subject from public web documents. You are precise, skeptical, and you never invent facts that the provided material does not support.`

// derivePrompt carries the full merge contract: the model, not the client,
// decides which entities already exist and which are new.
func derivePrompt(subject, graphJSON, document string) string {
	return fmt.Sprintf(`The investigation subject is: %s

Below is the CURRENT knowledge graph in node-link JSON form, followed by ONE newly retrieved document. Extract every fact about the subject (or about entities connected to the subject) that the document supports, and answer with the DELTA to merge into the graph.

Answer with a single JSON object and nothing else, in this shape:

{
  "nodes": [{"id": "...", "label": "...", "type": "...", "source": "...", "confidence": "...", "_comment": "..."}],
  "edges": [{"source": "...", "target": "...", "relationship": "...", "_comment": "..."}],
  "_comment": "one-line summary of what this document added"
}

Rules:
- Allowed node types: person, company, location, email, username, phone, social_media, website, event, education, occupation, interest, relationship, family, colleague.
- Labels must be atomic: one entity per node. Never combine two facts into one label.
- Reuse the id of an existing graph node whenever the document refers to the same real-world entity, even under a different spelling. Create a new id only for genuinely new entities.
- Ids are lowercase snake_case derived from the label.
- Every edge must connect two node ids that exist in the graph after this delta is applied.
- Tag confidence "confirmed" only when the document itself establishes the fact about this specific subject; otherwise "possibly related". People sharing the subject's name are "possibly related" until evidence ties them together.
- Set source to the document's origin so every fact stays attributable.
- Use _comment for caveats worth keeping, such as ambiguity between namesakes.
- If the document contains nothing relevant, answer {"nodes": [], "edges": []}.

CURRENT GRAPH:
%s

NEW DOCUMENT:
%s`, subject, graphJSON, document)
}

// advisePrompt asks for next investigative steps once a person's subgraph
// has been enriched against the external account databases.
func advisePrompt(subject, subgraphJSON, enrichmentJSON string) string {
	return fmt.Sprintf(`The investigation subject is: %s

Below is the person's subgraph in node-link JSON form, followed by the enrichment findings for their identifiers: breach-corpus hits and account enumeration results. Review both and answer with concise investigative guidance in markdown:

- the strongest confirmed findings, in two or three sentences
- what the breach and account findings imply about the subject's exposure
- gaps or ambiguities in the graph, especially possible namesake confusion
- concrete next search queries or sources an investigator should try

SUBGRAPH:
%s

ENRICHMENT FINDINGS:
%s`, subject, subgraphJSON, enrichmentJSON)
}
