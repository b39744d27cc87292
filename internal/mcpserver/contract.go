package mcpserver

// NoteFormatContract describes the Markdown note format accepted by the
// create_note and update_note tools.
const NoteFormatContract = `# Almanac Note Format Contract

Notes are sent as Markdown with an optional YAML frontmatter block. Almanac
stores the body as the note content and reads the fields below from the
frontmatter.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED unless the body starts with "# Heading"
category: backend                   # OPTIONAL – free text, used as a filter
note_type: concept                  # OPTIONAL – formula, tutorial, concept, troubleshooting,
                                    #            reference, code-snippet, other (default)
tags:                               # OPTIONAL – YAML list or comma-separated string
  - go
  - databases
pinned: false                       # OPTIONAL – create_note only
favorite: false                     # OPTIONAL – create_note only
---

Body text in standard Markdown. Inline #tags are merged with frontmatter tags.
` + "```" + `

## Rules

1. **Title and body must not be blank.** Empty notes are rejected.
2. **The frontmatter fences** (` + "`" + `---` + "`" + `) must be the first thing in the content.
   Invalid YAML is treated as part of the body.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **Updates keep history.** Every update_note call stores the previous title and
   content as a numbered version; use list_note_versions to inspect them.
   Pass ` + "`" + `expected_version` + "`" + ` to refuse the write if someone else changed the note first.
5. **Links to other records** (skill, project, event, task) are set through the
   REST API, not through frontmatter.
6. **Encoding** is UTF-8.

## Attachments

- Store images and PDFs with the ` + "`" + `attach_file` + "`" + ` tool. It returns a ` + "`" + `markdown` + "`" + ` field ready to paste into the body.
- Reference stored files with the absolute path: ` + "`" + `![description](/attachments/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
- Absolute http(s) image URLs in the body are recorded on the note's attachment list.

## Example

` + "```" + `markdown
---
title: SQLite WAL checkpoints
category: databases
note_type: troubleshooting
tags: [sqlite, performance]
---

# SQLite WAL checkpoints

Long readers block checkpoints, so the -wal file keeps growing.

![WAL growth](/attachments/wal-growth.png)

- Run ` + "`" + `PRAGMA wal_checkpoint(TRUNCATE)` + "`" + ` after batch jobs.
` + "```" + `
`
