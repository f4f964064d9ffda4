package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/dashboard-builder/infra/cloudrun"
	"github.com/GregMSThompson/dashboard-builder/infra/docker"
	"github.com/GregMSThompson/dashboard-builder/infra/firestore"
	"github.com/GregMSThompson/dashboard-builder/infra/provider"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable firestore and create the database backing STORAGE=firestore
		db, err := firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx)
		if err != nil {
			return err
		}

		svc, err := cloudrun.SetupCloudRun(ctx, prov, repo, db)
		if err != nil {
			return err
		}

		ctx.Export("gatewayUrl", svc.Statuses.Index(pulumi.Int(0)).Url())
		return nil
	})
}
