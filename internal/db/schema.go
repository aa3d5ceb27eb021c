package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS subjects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subject_components (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  component_type TEXT NOT NULL CHECK (component_type IN ('TH','IN','PR')),
  component_code TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  credit_hour REAL
);

CREATE TABLE IF NOT EXISTS catalog_groups (
  id TEXT PRIMARY KEY,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  name TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog_group_subjects (
  group_id TEXT NOT NULL REFERENCES catalog_groups(id) ON DELETE CASCADE,
  subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  sort_order INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (group_id, subject_id)
);

CREATE TABLE IF NOT EXISTS grading_schemes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  overall_method TEXT NOT NULL CHECK (overall_method IN ('SIMPLE_AVG','CREDIT_WEIGHTED'))
);

CREATE TABLE IF NOT EXISTS grading_rules (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  scheme_id TEXT NOT NULL REFERENCES grading_schemes(id) ON DELETE CASCADE,
  rule_type TEXT NOT NULL CHECK (rule_type IN ('SUBJECT_GPA','SUBJECT_GRADE','FINAL_GRADE')),
  min_value REAL NOT NULL,
  grade TEXT,
  gpa REAL
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  campus TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  grading_scheme_id TEXT REFERENCES grading_schemes(id),
  is_locked INTEGER NOT NULL DEFAULT 0,
  published_at INTEGER
);

CREATE TABLE IF NOT EXISTS exam_component_configs (
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  component_code TEXT NOT NULL,
  full_marks REAL NOT NULL,
  pass_marks REAL NOT NULL DEFAULT 0,
  is_enabled INTEGER NOT NULL DEFAULT 1,
  updated_by TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (exam_id, component_code)
);

CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  regd_no TEXT,
  dob TEXT
);

CREATE TABLE IF NOT EXISTS enrollments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  campus TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  symbol_no TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS marks (
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  component_code TEXT NOT NULL,
  marks_obtained REAL,
  is_absent INTEGER NOT NULL DEFAULT 0,
  entered_by TEXT NOT NULL DEFAULT '',
  updated_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (exam_id, enrollment_id, component_code),
  CHECK (is_absent = 0 OR marks_obtained IS NULL)
);

CREATE TABLE IF NOT EXISTS student_optional_choices (
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  group_name TEXT NOT NULL,
  subject_id TEXT NOT NULL REFERENCES subjects(id),
  PRIMARY KEY (enrollment_id, group_name)
);

CREATE TABLE IF NOT EXISTS result_snapshots (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  result_json TEXT NOT NULL,
  generated_by TEXT NOT NULL DEFAULT '',
  generated_at INTEGER NOT NULL,
  published_at INTEGER,
  UNIQUE (exam_id, enrollment_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrollments_scope ON enrollments (campus, academic_year, class, symbol_no);
CREATE INDEX IF NOT EXISTS idx_catalog_groups_scope ON catalog_groups (academic_year, class);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS subjects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subject_components (
  id BIGSERIAL PRIMARY KEY,
  subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  component_type TEXT NOT NULL CHECK (component_type IN ('TH','IN','PR')),
  component_code TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  credit_hour DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS catalog_groups (
  id TEXT PRIMARY KEY,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  name TEXT NOT NULL,
  sort_order INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog_group_subjects (
  group_id TEXT NOT NULL REFERENCES catalog_groups(id) ON DELETE CASCADE,
  subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
  sort_order INT NOT NULL DEFAULT 0,
  PRIMARY KEY (group_id, subject_id)
);

CREATE TABLE IF NOT EXISTS grading_schemes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  overall_method TEXT NOT NULL CHECK (overall_method IN ('SIMPLE_AVG','CREDIT_WEIGHTED'))
);

CREATE TABLE IF NOT EXISTS grading_rules (
  id BIGSERIAL PRIMARY KEY,
  scheme_id TEXT NOT NULL REFERENCES grading_schemes(id) ON DELETE CASCADE,
  rule_type TEXT NOT NULL CHECK (rule_type IN ('SUBJECT_GPA','SUBJECT_GRADE','FINAL_GRADE')),
  min_value DOUBLE PRECISION NOT NULL,
  grade TEXT,
  gpa DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  campus TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  grading_scheme_id TEXT REFERENCES grading_schemes(id),
  is_locked SMALLINT NOT NULL DEFAULT 0,
  published_at BIGINT
);

CREATE TABLE IF NOT EXISTS exam_component_configs (
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  component_code TEXT NOT NULL,
  full_marks DOUBLE PRECISION NOT NULL,
  pass_marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_enabled SMALLINT NOT NULL DEFAULT 1,
  updated_by TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (exam_id, component_code)
);

CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  regd_no TEXT,
  dob TEXT
);

CREATE TABLE IF NOT EXISTS enrollments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  campus TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  class TEXT NOT NULL,
  faculty TEXT,
  symbol_no TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS marks (
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  component_code TEXT NOT NULL,
  marks_obtained DOUBLE PRECISION,
  is_absent SMALLINT NOT NULL DEFAULT 0,
  entered_by TEXT NOT NULL DEFAULT '',
  updated_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (exam_id, enrollment_id, component_code),
  CHECK (is_absent = 0 OR marks_obtained IS NULL)
);

CREATE TABLE IF NOT EXISTS student_optional_choices (
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  group_name TEXT NOT NULL,
  subject_id TEXT NOT NULL REFERENCES subjects(id),
  PRIMARY KEY (enrollment_id, group_name)
);

CREATE TABLE IF NOT EXISTS result_snapshots (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  enrollment_id TEXT NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
  result_json TEXT NOT NULL,
  generated_by TEXT NOT NULL DEFAULT '',
  generated_at BIGINT NOT NULL,
  published_at BIGINT,
  UNIQUE (exam_id, enrollment_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrollments_scope ON enrollments (campus, academic_year, class, symbol_no);
CREATE INDEX IF NOT EXISTS idx_catalog_groups_scope ON catalog_groups (academic_year, class);
`
