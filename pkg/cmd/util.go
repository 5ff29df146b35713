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

package cmd

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func bindPFlagsHierarchy(cmd *cobra.Command, v *viper.Viper) error {
	for _, c := range cmd.Commands() {
		if err := bindPFlags(c, v); err != nil {
			return err
		}

		if err := bindPFlagsHierarchy(c, v); err != nil {
			return err
		}
	}

	return nil
}

func bindPFlags(cmd *cobra.Command, v *viper.Viper) error {
	prefix := pathToRoot(cmd)

	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		name := strings.ReplaceAll(flag.Name, "_", "-")

		if err := v.BindPFlag(prefix+"."+name, flag); err != nil && bindErr == nil {
			bindErr = err
		}
	})

	return bindErr
}

func pathToRoot(cmd *cobra.Command) string {
	path := cmd.Name()

	for current := cmd.Parent(); current != nil; current = current.Parent() {
		path = current.Name() + "." + path
	}

	return path
}

func decodeKey(target interface{}, key string, settings map[string]interface{}) error {
	nodes := strings.Split(key, ".")

	for _, node := range nodes {
		v := settings[node]

		if v == nil {
			return nil
		}

		if m, ok := v.(map[string]interface{}); ok {
			settings = m
		} else {
			return fmt.Errorf("unable to find node %s", node)
		}
	}

	c := mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	}

	decoder, err := mapstructure.NewDecoder(&c)
	if err != nil {
		return err
	}

	return decoder.Decode(settings)
}

// decode returns a PreRun hook that fills the target options struct from the
// viper settings bound to the command's flags.
func decode(target interface{}, v *viper.Viper) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := pathToRoot(cmd)
		return decodeKey(target, path, v.AllSettings())
	}
}
