package terraform

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/taskdata"
)

const wellFormed = `# main.tf for the analytics ingest stack; variables.tf and outputs.tf
# sections are marked inline below.

terraform {
  required_version = ">= 1.6"

  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "~> 5.0"
    }
  }

  backend "s3" {
    bucket = "ingest-tfstate"
    key    = "analytics/terraform.tfstate"
    region = "us-east-1"
  }
}

provider "aws" {
  region = var.aws_region
}

# variables.tf

variable "aws_region" {
  description = "Region the stack deploys into"
  type        = string
}

variable "db_password" {
  description = "Master password for the metadata database"
  type        = string
  sensitive   = true
}

locals {
  common_tags = {
    Project = "analytics-ingest"
    Owner   = "data-platform"
  }
}

data "aws_ami" "ubuntu" {
  most_recent = true

  filter {
    name   = "name"
    values = ["ubuntu/images/hvm-ssd/*"]
  }
}

# main.tf

resource "aws_vpc" "main_vpc" {
  cidr_block = "10.0.0.0/16"
  tags       = merge(local.common_tags, { Name = "ingest-vpc" })
}

resource "aws_s3_bucket" "raw_events_bucket" {
  bucket = "raw-events-${var.aws_region}"
  tags   = local.common_tags
}

# outputs.tf

output "vpc_id" {
  description = "ID of the ingest VPC"
  value       = aws_vpc.main_vpc.id
}

output "bucket_name" {
  value = aws_s3_bucket.raw_events_bucket.bucket
}`

const flawedConfig = `provider "aws" {
  region = "us-west-2"
}

resource "aws_security_group" "sg1" {
  name   = "app-sg"
  vpc_id = "vpc-123abc"
}

variable "ami_id" {
  type = string
}

resource "aws_instance" "web_server" {
  ami           = "ami-0abc1234def567890"
  instance_type = "t3.micro"
  iam_role_arn  = "arn:aws:iam::123456789012:role/deploy"
}

variable "env" {
  description = "Deployment environment"
}`

// claudeResultEnvelope wraps assistant text in a Claude CLI JSON envelope
// carrying a usage block, alongside what the capture tooling records.
func claudeResultEnvelope(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type":   "result",
		"result": text,
		"usage": map[string]any{
			"input_tokens":                1200,
			"output_tokens":               450,
			"cache_read_input_tokens":     300,
			"cache_creation_input_tokens": 80,
		},
		"total_cost_usd": 0.042,
	})
	require.NoError(t, err)
	return string(raw)
}

func TestRubricContract(t *testing.T) {
	rb := New()

	t.Run("domain and score ceiling", func(t *testing.T) {
		assert.Equal(t, constants.DomainTerraform, rb.Domain())
		assert.InDelta(t, 13.0, rb.MaxScore(), 0)
	})

	t.Run("fourteen rules with one manual", func(t *testing.T) {
		rules := rb.Rules()

		require.Len(t, rules, 14)
		assert.Equal(t, "rule_1_naming", rules[0].ID)
		assert.Equal(t, "rule_14_locals", rules[13].ID)

		manual := 0
		for _, r := range rules {
			if r.Manual {
				manual++
			}
		}
		assert.Equal(t, 1, manual)
	})

	t.Run("columns follow the shared prefix", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, cols, 52)
		assert.Equal(t, "run_id", cols[0])
		assert.Equal(t, "extraction_ok", cols[12])
		assert.Equal(t, "outcome_score", cols[len(cols)-1])
		assert.Contains(t, cols, "rule_6_lifecycle_detail")
		assert.Contains(t, cols, "needs_manual_review")
	})

	t.Run("doc names every rule and marks the manual one", func(t *testing.T) {
		doc := rb.Doc()

		for _, r := range rb.Rules() {
			assert.Contains(t, doc, r.ID)
		}
		assert.Contains(t, doc, "outcome_resources_present")
		assert.Contains(t, doc, "*(manual, not scored)*")
	})
}

func TestEvaluate(t *testing.T) {
	rb := New()
	task := taskdata.Task{
		Resources:    []string{"aws_vpc", "aws_s3_bucket"},
		Requirements: taskdata.Requirements{SensitiveValues: true, DataSources: true},
	}

	rec := &domain.RunRecord{
		RunID:          "run-001",
		Model:          "claude-sonnet-4",
		Condition:      "pseudocode",
		Task:           "5",
		TaskComplexity: "high",
		Domain:         constants.DomainTerraform,
		Rep:            2,
		DurationMs:     183456,
		RawOutput:      claudeResultEnvelope(t, "Here is the configuration:\n\n```hcl\n"+wellFormed+"\n```"),
	}

	sr := rb.Evaluate(context.Background(), rec, task)

	t.Run("artifact extracted from the fence", func(t *testing.T) {
		assert.False(t, sr.Artifact.Failed)
		assert.Equal(t, domain.MethodFencedBlock, sr.Artifact.Method)
		assert.Equal(t, wellFormed, sr.Artifact.Content)
	})

	t.Run("row cells align with the column contract", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, sr.Values, len(cols))
		for i, f := range sr.Values {
			assert.Equal(t, cols[i], f.Name, "column %d", i)
		}
	})

	t.Run("identity and usage cells", func(t *testing.T) {
		wantCells := map[string]string{
			"run_id":             "run-001",
			"model":              "claude-sonnet-4",
			"condition":          "pseudocode",
			"task":               "5",
			"task_complexity":    "high",
			"rep":                "2",
			"duration_ms":        "183456",
			"input_tokens":       "1200",
			"output_tokens":      "450",
			"cache_read_tokens":  "300",
			"cache_write_tokens": "80",
			"total_cost_usd":     "0.042",
			"extraction_ok":      "True",
			"extraction_error":   "",
			"structure_valid":    "True",
			"structure_errors":   "",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("rule details for a clean configuration", func(t *testing.T) {
		wantDetails := map[string]string{
			"rule_1_naming":           "all 2 resource names are descriptive snake_case",
			"rule_2_var_description":  "all 2 variables have descriptions",
			"rule_3_var_type":         "all 2 variables have type constraints",
			"rule_4_outputs":          "2 outputs defined: ['vpc_id', 'bucket_name']",
			"rule_5_tags":             "all 2 taggable resources have tags",
			"rule_7_var_separation":   "variables appear grouped",
			"rule_8_file_structure":   "file structure mentioned: ['main.tf', 'variables.tf', 'outputs.tf']",
			"rule_9_no_hardcoded_ids": "no hardcoded IDs found",
			"rule_10_provider_pinned": "provider version pinned: ~> 5.0",
			"rule_11_backend":         "backend configured: s3",
			"rule_12_sensitive":       "sensitive vars: ['db_password'], outputs: []",
			"rule_13_data_sources":    "1 data sources: ['aws_ami.ubuntu']",
			"rule_14_locals":          "locals block present",
		}
		for id, want := range wantDetails {
			res, ok := sr.Result(id)
			require.True(t, ok, id)
			assert.True(t, res.Passed, id)
			assert.Equal(t, want, res.Detail, id)
		}
	})

	t.Run("all automatable rules pass", func(t *testing.T) {
		assert.InDelta(t, 13.0, sr.AutoScore, 0)
		assert.Equal(t, 13, sr.ScoredRules)

		score, ok := sr.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "13", score)

		scored, ok := sr.Value("scored_rules")
		require.True(t, ok)
		assert.Equal(t, "13", scored)
	})

	t.Run("manual lifecycle rule always flags review", func(t *testing.T) {
		res, ok := sr.Result("rule_6_lifecycle")
		require.True(t, ok)
		assert.True(t, res.Passed)
		assert.Equal(t, "needs_review", res.Detail)

		assert.True(t, sr.NeedsManualReview)
		cell, ok := sr.Value("needs_manual_review")
		require.True(t, ok)
		assert.Equal(t, "True", cell)
	})

	t.Run("outcomes all pass", func(t *testing.T) {
		require.Len(t, sr.Outcomes, 2)
		for _, oc := range sr.Outcomes {
			assert.True(t, oc.Passed, oc.RuleID)
		}

		cell, ok := sr.Value("outcome_score")
		require.True(t, ok)
		assert.Equal(t, "2", cell)

		present, ok := sr.Value("outcome_resources_present_detail")
		require.True(t, ok)
		assert.Equal(t, "all 2 expected resources present", present)

		coverage, ok := sr.Value("outcome_resource_coverage_detail")
		require.True(t, ok)
		assert.Equal(t, "2/2 resources (100%)", coverage)
	})

	t.Run("evaluation is deterministic", func(t *testing.T) {
		again := rb.Evaluate(context.Background(), rec, task)

		assert.Equal(t, sr.Values, again.Values)
		assert.Equal(t, sr.Results, again.Results)
	})
}

func TestEvaluateFlawedConfiguration(t *testing.T) {
	rb := New()
	task := taskdata.Task{Resources: []string{"aws_security_group", "aws_instance", "aws_lb"}}

	rec := &domain.RunRecord{
		RunID:     "run-002",
		Model:     "claude-sonnet-4",
		Condition: "none",
		Domain:    constants.DomainTerraform,
		RawOutput: claudeResultEnvelope(t, "Draft configuration below.\n\n```terraform\n"+flawedConfig+"\n```"),
	}

	sr := rb.Evaluate(context.Background(), rec, task)

	t.Run("structure still validates", func(t *testing.T) {
		assert.False(t, sr.Artifact.Failed)

		valid, ok := sr.Value("structure_valid")
		require.True(t, ok)
		assert.Equal(t, "True", valid)
	})

	t.Run("failed rule details name the violations", func(t *testing.T) {
		wantDetails := map[string]string{
			"rule_1_naming":           "aws_security_group.sg1: too generic/short",
			"rule_2_var_description":  "missing description: ['ami_id']",
			"rule_3_var_type":         "missing type: ['env']",
			"rule_4_outputs":          "no outputs defined",
			"rule_5_tags":             "missing tags on: ['aws_security_group.sg1', 'aws_instance.web_server']",
			"rule_7_var_separation":   "variables scattered between resource blocks",
			"rule_9_no_hardcoded_ids": "hardcoded AMI ID (ami-*); possible hardcoded AWS account ID (12 digits)",
			"rule_10_provider_pinned": "no required_providers block found",
			"rule_11_backend":         "no backend configuration found",
			"rule_14_locals":          "no locals block defined",
		}
		for id, want := range wantDetails {
			res, ok := sr.Result(id)
			require.True(t, ok, id)
			assert.False(t, res.Passed, id)
			assert.Equal(t, want, res.Detail, id)
		}
	})

	t.Run("conditional rules pass as not applicable", func(t *testing.T) {
		sensitive, ok := sr.Result("rule_12_sensitive")
		require.True(t, ok)
		assert.True(t, sensitive.Passed)
		assert.Equal(t, "n/a (task does not require sensitive values)", sensitive.Detail)

		data, ok := sr.Result("rule_13_data_sources")
		require.True(t, ok)
		assert.True(t, data.Passed)
		assert.Equal(t, "n/a (task does not require data sources)", data.Detail)

		layout, ok := sr.Result("rule_8_file_structure")
		require.True(t, ok)
		assert.True(t, layout.Passed)
		assert.Equal(t, "needs_review (single file output)", layout.Detail)
	})

	t.Run("scores count only passing scored rules", func(t *testing.T) {
		assert.InDelta(t, 3.0, sr.AutoScore, 0)
		assert.Equal(t, 13, sr.ScoredRules)
		assert.True(t, sr.NeedsManualReview)
	})

	t.Run("outcomes split on the missing load balancer", func(t *testing.T) {
		present, ok := sr.Result("outcome_resources_present")
		require.True(t, ok)
		assert.False(t, present.Passed)
		assert.Equal(t, "missing 1/3 resources: ['aws_lb']", present.Detail)

		coverage, ok := sr.Result("outcome_resource_coverage")
		require.True(t, ok)
		assert.True(t, coverage.Passed)
		assert.Equal(t, "2/3 resources (67%)", coverage.Detail)

		cell, ok := sr.Value("outcome_score")
		require.True(t, ok)
		assert.Equal(t, "1", cell)
	})
}

func TestEvaluateExtractionFailure(t *testing.T) {
	rb := New()

	rec := &domain.RunRecord{
		RunID:     "run-003",
		Model:     "claude-sonnet-4",
		Condition: "none",
		Domain:    constants.DomainTerraform,
		RawOutput: "I cannot write that configuration for you.",
	}

	sr := rb.Evaluate(context.Background(), rec, taskdata.Task{})

	t.Run("failure row is complete and aligned", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, sr.Values, len(cols))
		for i, f := range sr.Values {
			assert.Equal(t, cols[i], f.Name, "column %d", i)
		}
	})

	t.Run("failure cells", func(t *testing.T) {
		wantCells := map[string]string{
			"extraction_ok":                    "False",
			"extraction_error":                 "could not extract Terraform HCL from output",
			"structure_valid":                  "False",
			"structure_errors":                 "could not extract Terraform HCL from output",
			"rule_1_naming_pass":               "False",
			"rule_1_naming_detail":             "no Terraform HCL extracted",
			"rule_6_lifecycle_detail":          "no Terraform HCL extracted",
			"auto_score":                       "0",
			"scored_rules":                     "0",
			"needs_manual_review":              "False",
			"outcome_resources_present_pass":   "False",
			"outcome_resources_present_detail": "no Terraform HCL extracted",
			"outcome_score":                    "0",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("score record mirrors the row", func(t *testing.T) {
		assert.True(t, sr.Artifact.Failed)
		assert.InDelta(t, 0.0, sr.AutoScore, 0)
		assert.Equal(t, 0, sr.ScoredRules)
		assert.False(t, sr.NeedsManualReview)
		assert.Len(t, sr.Results, 14)
		assert.Len(t, sr.Outcomes, 2)
	})

	t.Run("empty output keeps its own error", func(t *testing.T) {
		empty := rb.Evaluate(context.Background(), &domain.RunRecord{RunID: "run-004", RawOutput: ""}, taskdata.Task{})

		got, ok := empty.Value("extraction_error")
		require.True(t, ok)
		assert.Equal(t, "empty output", got)

		usage, ok := empty.Value("input_tokens")
		require.True(t, ok)
		assert.Empty(t, usage)
	})
}
