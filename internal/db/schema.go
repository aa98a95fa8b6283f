package db

// Collection names.
const (
	TableDialogue  = "dialogue"
	TableReminder  = "reminder"
	TableTodo      = "todo"
	TableKnowledge = "knowledge"
	TableSimilarTo = "similar_to"
)

// Collections lists the document collections InitSchema ensures.
var Collections = []string{TableDialogue, TableReminder, TableTodo, TableKnowledge}

// SchemaSQL defines indexes and the similarity relation. Tables themselves
// are schemaless and created through EnsureCollection.
const SchemaSQL = `
    DEFINE INDEX IF NOT EXISTS dialogue_user_time ON dialogue FIELDS user_id, timestamp;

    DEFINE INDEX IF NOT EXISTS reminder_user ON reminder FIELDS user_id;
    DEFINE INDEX IF NOT EXISTS reminder_due ON reminder FIELDS completed, reminder_time;

    DEFINE INDEX IF NOT EXISTS todo_user ON todo FIELDS user_id, completed;

    DEFINE INDEX IF NOT EXISTS knowledge_category ON knowledge FIELDS category;
    DEFINE INDEX IF NOT EXISTS knowledge_tags ON knowledge FIELDS tags;

    -- Links knowledge entries whose embeddings are close
    DEFINE TABLE IF NOT EXISTS similar_to TYPE RELATION IN knowledge OUT knowledge SCHEMALESS;
    DEFINE INDEX IF NOT EXISTS similar_to_pair ON similar_to FIELDS in, out UNIQUE;
`
