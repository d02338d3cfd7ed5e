package terraform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/verdict/internal/taskdata"
)

func TestCheckNaming(t *testing.T) {
	t.Run("no resources", func(t *testing.T) {
		passed, detail := checkNaming(`variable "region" { type = string }`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no resources found", detail)
	})

	t.Run("descriptive snake_case names pass", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {}
resource "aws_security_group" "app_security_group" {}`

		passed, detail := checkNaming(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "all 2 resource names are descriptive snake_case", detail)
	})

	t.Run("generic short name flagged", func(t *testing.T) {
		passed, detail := checkNaming(`resource "aws_security_group" "sg1" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "aws_security_group.sg1: too generic/short", detail)
	})

	t.Run("capitalized name is not snake_case", func(t *testing.T) {
		passed, detail := checkNaming(`resource "aws_instance" "WebServer" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "aws_instance.WebServer: not snake_case", detail)
	})

	t.Run("hyphenated name is not snake_case", func(t *testing.T) {
		passed, detail := checkNaming(`resource "aws_instance" "web-server" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "aws_instance.web-server: not snake_case", detail)
	})

	t.Run("violations capped at five", func(t *testing.T) {
		tf := `resource "aws_vpc" "sg1" {}
resource "aws_vpc" "sg2" {}
resource "aws_vpc" "sg3" {}
resource "aws_vpc" "sg4" {}
resource "aws_vpc" "sg5" {}
resource "aws_vpc" "sg6" {}`

		passed, detail := checkNaming(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "aws_vpc.sg1: too generic/short; aws_vpc.sg2: too generic/short; "+
			"aws_vpc.sg3: too generic/short; aws_vpc.sg4: too generic/short; aws_vpc.sg5: too generic/short", detail)
	})
}

func TestCheckVarDescription(t *testing.T) {
	t.Run("no variables", func(t *testing.T) {
		passed, detail := checkVarDescription(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no variables defined", detail)
	})

	t.Run("all described", func(t *testing.T) {
		tf := `variable "region" {
  description = "Deploy region"
  type        = string
}

variable "cidr" {
  description = "VPC CIDR"
  type        = string
}`

		passed, detail := checkVarDescription(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "all 2 variables have descriptions", detail)
	})

	t.Run("missing description listed", func(t *testing.T) {
		tf := `variable "region" {
  description = "Deploy region"
}

variable "bucket_name" {
  type = string
}`

		passed, detail := checkVarDescription(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "missing description: ['bucket_name']", detail)
	})
}

func TestCheckVarType(t *testing.T) {
	t.Run("missing type listed", func(t *testing.T) {
		tf := `variable "env" {
  description = "Deployment environment"
}`

		passed, detail := checkVarType(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "missing type: ['env']", detail)
	})

	t.Run("typed variable passes", func(t *testing.T) {
		tf := `variable "env" {
  description = "Deployment environment"
  type        = string
}`

		passed, detail := checkVarType(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "all 1 variables have type constraints", detail)
	})

	t.Run("no variables", func(t *testing.T) {
		passed, detail := checkVarType("", taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no variables defined", detail)
	})
}

func TestCheckOutputs(t *testing.T) {
	t.Run("no outputs", func(t *testing.T) {
		passed, detail := checkOutputs(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no outputs defined", detail)
	})

	t.Run("outputs listed", func(t *testing.T) {
		tf := `output "vpc_id" {
  value = aws_vpc.main_vpc.id
}

output "subnet_ids" {
  value = aws_subnet.public_subnet[*].id
}`

		passed, detail := checkOutputs(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "2 outputs defined: ['vpc_id', 'subnet_ids']", detail)
	})
}

func TestCheckTags(t *testing.T) {
	t.Run("no resources", func(t *testing.T) {
		passed, detail := checkTags("", taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no resources found", detail)
	})

	t.Run("only untaggable resources", func(t *testing.T) {
		tf := `resource "aws_s3_bucket_versioning" "data_versioning" {
  bucket = aws_s3_bucket.data_bucket.id
}`

		passed, detail := checkTags(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "no taggable resources found", detail)
	})

	t.Run("literal tags map passes", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {
  cidr_block = var.cidr
  tags = {
    Name = "ingest"
  }
}`

		passed, detail := checkTags(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "all 1 taggable resources have tags", detail)
	})

	t.Run("merge call passes", func(t *testing.T) {
		tf := `resource "aws_s3_bucket" "raw_bucket" {
  bucket = var.name
  tags   = merge(local.common_tags, { Name = "raw" })
}`

		passed, _ := checkTags(tf, taskdata.Task{})

		assert.True(t, passed)
	})

	t.Run("dynamic tag block passes", func(t *testing.T) {
		tf := `resource "aws_ecs_service" "ingest_service" {
  name = "ingest"

  dynamic "tag" {
    for_each = local.common_tags
    content {
      key   = tag.key
      value = tag.value
    }
  }
}`

		passed, _ := checkTags(tf, taskdata.Task{})

		assert.True(t, passed)
	})

	t.Run("untagged taggable resource listed", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {
  cidr_block = var.cidr
}`

		passed, detail := checkTags(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "missing tags on: ['aws_vpc.main_vpc']", detail)
	})
}

func TestCheckLifecycle(t *testing.T) {
	passed, detail := checkLifecycle(`resource "aws_db_instance" "metadata_db" {}`, taskdata.Task{})

	assert.True(t, passed)
	assert.Equal(t, "needs_review", detail)
}

func TestCheckVarSeparation(t *testing.T) {
	t.Run("no variable blocks defers", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {}
resource "aws_subnet" "public_subnet" {}`

		passed, detail := checkVarSeparation(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "needs_review (no variable blocks found)", detail)
	})

	t.Run("variables first pass", func(t *testing.T) {
		tf := `variable "region" { type = string }
variable "cidr" { type = string }

resource "aws_vpc" "main_vpc" {}
resource "aws_subnet" "public_subnet" {}`

		passed, detail := checkVarSeparation(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "variables appear grouped", detail)
	})

	t.Run("trailing variables still count as grouped", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {}

variable "region" { type = string }
variable "cidr" { type = string }`

		passed, detail := checkVarSeparation(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "variables appear grouped", detail)
	})

	t.Run("sandwiched variable fails", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {}

variable "cidr" { type = string }

resource "aws_subnet" "public_subnet" {}`

		passed, detail := checkVarSeparation(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "variables scattered between resource blocks", detail)
	})

	t.Run("prose line starting with variable counts as a declaration", func(t *testing.T) {
		tf := `resource "aws_vpc" "main_vpc" {}
variable names follow the team convention
resource "aws_subnet" "public_subnet" {}`

		passed, detail := checkVarSeparation(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "variables scattered between resource blocks", detail)
	})
}

func TestCheckFileStructure(t *testing.T) {
	t.Run("markers reported in canonical order", func(t *testing.T) {
		tf := `# variables.tf holds the inputs, main.tf the resources.
resource "aws_vpc" "main_vpc" {}`

		passed, detail := checkFileStructure(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "file structure mentioned: ['main.tf', 'variables.tf']", detail)
	})

	t.Run("single file output defers", func(t *testing.T) {
		passed, detail := checkFileStructure(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "needs_review (single file output)", detail)
	})
}

func TestCheckNoHardcodedIDs(t *testing.T) {
	t.Run("clean configuration", func(t *testing.T) {
		tf := `resource "aws_instance" "web_server" {
  ami           = data.aws_ami.ubuntu.id
  instance_type = var.instance_type
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "no hardcoded IDs found", detail)
	})

	t.Run("hardcoded ami flagged", func(t *testing.T) {
		tf := `resource "aws_instance" "web_server" {
  ami = "ami-0abc1234def56789"
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "hardcoded AMI ID (ami-*)", detail)
	})

	t.Run("twelve digit account id flagged", func(t *testing.T) {
		tf := `resource "aws_iam_role" "app_role" {
  assume_role_policy = "arn:aws:iam::123456789012:root"
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "possible hardcoded AWS account ID (12 digits)", detail)
	})

	t.Run("thirteen digit run not flagged", func(t *testing.T) {
		tf := `resource "aws_cloudwatch_log_group" "app_logs" {
  name = "trace-1234567890123"
}`

		passed, _ := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.True(t, passed)
	})

	t.Run("account id in comment ignored", func(t *testing.T) {
		tf := `# provisioned in account 123456789012
resource "aws_vpc" "main_vpc" {
  cidr_block = var.cidr
}`

		passed, _ := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.True(t, passed)
	})

	t.Run("region literal in resource flagged", func(t *testing.T) {
		tf := `resource "aws_s3_bucket" "replica_bucket" {
  region = "us-east-1"
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "hardcoded region string in resource block", detail)
	})

	t.Run("region inside provider and terraform blocks allowed", func(t *testing.T) {
		tf := `terraform {
  backend "s3" {
    bucket = "state-bucket"
    region = "eu-west-1"
  }
}

provider "aws" {
  region = "us-east-1"
}

resource "aws_vpc" "main_vpc" {
  cidr_block = var.cidr
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "no hardcoded IDs found", detail)
	})

	t.Run("availability zone suffix not mistaken for a region", func(t *testing.T) {
		tf := `resource "aws_subnet" "public_subnet" {
  availability_zone = "us-east-1a"
}`

		passed, _ := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.True(t, passed)
	})

	t.Run("violations joined", func(t *testing.T) {
		tf := `resource "aws_instance" "web_server" {
  ami    = "ami-0abc1234def56789"
  region = "us-west-2"
}`

		passed, detail := checkNoHardcodedIDs(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "hardcoded AMI ID (ami-*); hardcoded region string in resource block", detail)
	})
}

func TestCheckProviderPinned(t *testing.T) {
	t.Run("no required_providers block", func(t *testing.T) {
		passed, detail := checkProviderPinned(`provider "aws" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no required_providers block found", detail)
	})

	t.Run("pinned version reported", func(t *testing.T) {
		tf := `terraform {
  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "~> 5.0"
    }
  }
}`

		passed, detail := checkProviderPinned(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "provider version pinned: ~> 5.0", detail)
	})

	t.Run("version found on a later entry", func(t *testing.T) {
		tf := `terraform {
  required_providers {
    random = {
      source = "hashicorp/random"
    }
    aws = {
      source  = "hashicorp/aws"
      version = ">= 5.0, < 6.0"
    }
  }
}`

		passed, detail := checkProviderPinned(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "provider version pinned: >= 5.0, < 6.0", detail)
	})

	t.Run("block without version constraint", func(t *testing.T) {
		tf := `terraform {
  required_providers {
    aws = {
      source = "hashicorp/aws"
    }
  }
}`

		passed, detail := checkProviderPinned(tf, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "required_providers block found but no version constraint", detail)
	})
}

func TestCheckBackend(t *testing.T) {
	t.Run("s3 backend reported", func(t *testing.T) {
		tf := `terraform {
  backend "s3" {
    bucket = "state-bucket"
  }
}`

		passed, detail := checkBackend(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "backend configured: s3", detail)
	})

	t.Run("cloud block accepted", func(t *testing.T) {
		tf := `terraform {
  cloud {
    organization = "acme"
  }
}`

		passed, detail := checkBackend(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "backend configured: terraform cloud", detail)
	})

	t.Run("no backend", func(t *testing.T) {
		passed, detail := checkBackend(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no backend configuration found", detail)
	})
}

func TestCheckSensitive(t *testing.T) {
	sensitiveTask := taskdata.Task{Requirements: taskdata.Requirements{SensitiveValues: true}}

	t.Run("not required by task", func(t *testing.T) {
		passed, detail := checkSensitive(`variable "db_password" { type = string }`, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "n/a (task does not require sensitive values)", detail)
	})

	t.Run("required but nothing marked", func(t *testing.T) {
		tf := `variable "db_password" {
  description = "Master password"
  type        = string
}`

		passed, detail := checkSensitive(tf, sensitiveTask)

		assert.False(t, passed)
		assert.Equal(t, "task requires sensitive values but none marked sensitive = true", detail)
	})

	t.Run("sensitive variable reported", func(t *testing.T) {
		tf := `variable "db_password" {
  type      = string
  sensitive = true
}`

		passed, detail := checkSensitive(tf, sensitiveTask)

		assert.True(t, passed)
		assert.Equal(t, "sensitive vars: ['db_password'], outputs: []", detail)
	})

	t.Run("sensitive output reported", func(t *testing.T) {
		tf := `output "db_endpoint" {
  value     = aws_db_instance.metadata_db.endpoint
  sensitive = true
}`

		passed, detail := checkSensitive(tf, sensitiveTask)

		assert.True(t, passed)
		assert.Equal(t, "sensitive vars: [], outputs: ['db_endpoint']", detail)
	})
}

func TestCheckDataSources(t *testing.T) {
	dataTask := taskdata.Task{Requirements: taskdata.Requirements{DataSources: true}}

	t.Run("not required by task", func(t *testing.T) {
		passed, detail := checkDataSources(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "n/a (task does not require data sources)", detail)
	})

	t.Run("required but none defined", func(t *testing.T) {
		passed, detail := checkDataSources(`resource "aws_vpc" "main_vpc" {}`, dataTask)

		assert.False(t, passed)
		assert.Equal(t, "task requires data sources but none defined", detail)
	})

	t.Run("data sources listed", func(t *testing.T) {
		tf := `data "aws_ami" "ubuntu" {
  most_recent = true
}

data "aws_vpc" "default" {
  default = true
}`

		passed, detail := checkDataSources(tf, dataTask)

		assert.True(t, passed)
		assert.Equal(t, "2 data sources: ['aws_ami.ubuntu', 'aws_vpc.default']", detail)
	})
}

func TestCheckLocals(t *testing.T) {
	t.Run("locals present", func(t *testing.T) {
		tf := `locals {
  common_tags = { Project = "ingest" }
}`

		passed, detail := checkLocals(tf, taskdata.Task{})

		assert.True(t, passed)
		assert.Equal(t, "locals block present", detail)
	})

	t.Run("no locals", func(t *testing.T) {
		passed, detail := checkLocals(`resource "aws_vpc" "main_vpc" {}`, taskdata.Task{})

		assert.False(t, passed)
		assert.Equal(t, "no locals block defined", detail)
	})
}
