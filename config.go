package main

import (
	"fmt"
	"os"
	"reflect"
	"slices"

	"github.com/utilitywarehouse/rpm-mirror/mirrorsync"
	"gopkg.in/yaml.v3"
)

func parseConfigFile(path string) (*mirrorsync.Config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = validateConfigKeys(yamlFile)
	if err != nil {
		return nil, err
	}

	conf := &mirrorsync.Config{}
	err = yaml.Unmarshal(yamlFile, conf)
	if err != nil {
		return nil, err
	}

	return conf, nil
}

// validateConfigKeys rejects config files containing keys which are not
// part of the config schema, typos in optional keys would otherwise be
// silently ignored.
func validateConfigKeys(yamlData []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return err
	}

	allowedTopKeys := getAllowedKeys(mirrorsync.Config{})
	if key := findUnexpectedKey(raw, allowedTopKeys); key != "" {
		return fmt.Errorf("unexpected key: .%v", key)
	}

	reposRaw, ok := raw["reposync_repos"]
	if !ok || reposRaw == nil {
		// reposync_repos is optional
		return nil
	}

	repos, ok := reposRaw.([]interface{})
	if !ok {
		return fmt.Errorf("reposync_repos section is not valid")
	}

	allowedRepoKeys := getAllowedKeys(mirrorsync.RepoConfig{})
	for _, repoInterface := range repos {
		repoMap, ok := repoInterface.(map[string]interface{})
		if !ok {
			return fmt.Errorf("reposync_repos section is not valid")
		}

		if key := findUnexpectedKey(repoMap, allowedRepoKeys); key != "" {
			return fmt.Errorf("unexpected key: .reposync_repos[%v].%v", repoMap["repoid"], key)
		}
	}

	return nil
}

// getAllowedKeys retrieves a list of allowed keys from the specified struct
func getAllowedKeys(config interface{}) []string {
	var allowedKeys []string
	typ := reflect.TypeOf(config)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag != "" {
			allowedKeys = append(allowedKeys, yamlTag)
		}
	}
	return allowedKeys
}

func findUnexpectedKey(raw map[string]interface{}, allowedKeys []string) string {
	for key := range raw {
		if !slices.Contains(allowedKeys, key) {
			return key
		}
	}

	return ""
}
