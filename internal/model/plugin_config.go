package model

// PluginConfig 插件级键值配置，name=version 的行即当前 schema 版本
type PluginConfig struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Plugin string `gorm:"column:plugin;size:100;not null;uniqueIndex:config_plugins_plugin_name_uix,priority:1"`
	Name   string `gorm:"column:name;size:100;not null;uniqueIndex:config_plugins_plugin_name_uix,priority:2"`
	Value  string `gorm:"column:value;type:text"`
}

func (PluginConfig) TableName() string {
	return "config_plugins"
}
