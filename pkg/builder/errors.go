/*
Licensed to the Apache Software Foundation (ASF) under one or more
contributor license agreements.  See the NOTICE file distributed with
this work for additional information regarding copyright ownership.
The ASF licenses this file to You under the Apache License, Version 2.0
(the "License"); you may not use this file except in compliance with
the License.  You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package builder

import "fmt"

// ConfigurationError indicates a malformed or ambiguous component
// configuration. It is surfaced immediately and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid component configuration: " + e.Reason
}

// MissingDependencyError indicates that a declared dependency has no entry in
// the build context. The caller must build components in dependency order, so
// this is a caller bug, not a recoverable condition.
type MissingDependencyError struct {
	Component  string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("component %s declares dependency %s which has not been built", e.Component, e.Dependency)
}

// PreconditionError indicates that a stage's precondition did not hold, so
// the stage and all stages after it were not executed.
type PreconditionError struct {
	Stage string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("the precondition of stage %s is not met", e.Stage)
}
